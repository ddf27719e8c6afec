// Package canonical defines the format-agnostic configuration value model and
// the flattening that turns a parsed tree into dotted key-path entries.
//
// All supported formats converge onto Value, a closed tagged union, so the
// diff engine and the policy engine compare configurations without caring
// which serialization they came from.
package canonical
