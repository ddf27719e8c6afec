// Package execshell wraps external command execution behind a small,
// observable executor. All git access in the history walker flows through
// ShellExecutor so commands are logged consistently and replaceable in tests.
package execshell
