// Package diffengine computes ordered, key-path level change sets between
// two flattened configuration mappings.
package diffengine
