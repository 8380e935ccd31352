// Package pullrequests opens pull requests on behalf of a GitHub App.
//
// Service checks that App credentials are present, authenticates as the first
// installation of the App and runs gh pr create into main with the resulting
// installation token. Progress and failures are written to the configured
// output; callers receive a typed error describing the failed stage.
// CommandBuilder exposes the workflow as the pr-create Cobra command.
package pullrequests
