// Package policy loads declarative governance rule sets and evaluates them
// against flattened configuration mappings.
//
// Loading validates the whole document up front: rule ids must be unique and
// every regex and file glob must compile before any file is evaluated.
package policy
