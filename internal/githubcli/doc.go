// Package githubcli wraps the GitHub CLI for ghapp-pr.
//
// It layers typed request options over gh subcommands and runs them through
// execshell so interactions with GitHub can be stubbed during testing.
package githubcli
