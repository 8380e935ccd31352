// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and turns non-zero
// exit codes into CommandFailedError values, while OSCommandRunner performs the
// actual process execution. ghapp-pr runs the GitHub CLI through this package so
// invocations can be recorded and stubbed in tests.
package execshell
