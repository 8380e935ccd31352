// Package githubauth names the environment variables the GitHub CLI reads
// credentials from and builds child-process environments carrying a token.
package githubauth
