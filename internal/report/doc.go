// Package report composes audit sections into a single AuditReport with a
// computed risk verdict. Aggregation is a pure function over its inputs; the
// Builder owns the I/O that produces those inputs, and per-format renderers
// emit terminal, Markdown, and JSON forms.
package report
