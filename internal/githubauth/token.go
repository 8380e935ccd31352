package githubauth

import (
	"errors"
	"strings"
)

// Environment variable names the GitHub CLI reads authentication tokens from.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
)

const (
	tokenMissingMessageConstant = "access token must be provided"
)

// ErrTokenMissing indicates an empty token was supplied.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

// TokenEnvironment builds the environment overrides that make a child gh process
// authenticate with the supplied token. GITHUB_TOKEN carries the token and GH_TOKEN,
// which gh consults first, is set to the same value so an ambient user token cannot
// take precedence.
func TokenEnvironment(token string) (map[string]string, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenMissing
	}
	return map[string]string{
		EnvGitHubToken:    trimmedToken,
		EnvGitHubCLIToken: trimmedToken,
	}, nil
}
