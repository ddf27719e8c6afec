// Package normalize parses raw YAML, JSON, and TOML bytes into flattened
// canonical mappings.
//
// Each front end reports structured *ParseError values carrying the format,
// a source location when the underlying parser exposes one, and a reason, so
// batch callers can attach per-file failures to their reports instead of
// aborting.
package normalize
