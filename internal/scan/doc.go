// Package scan builds and compares configuration snapshots. A snapshot pairs
// a hashed file inventory with each file's flattened mapping, so comparisons
// against a snapshot report key-level changes without re-reading the tree it
// was taken from.
package scan
