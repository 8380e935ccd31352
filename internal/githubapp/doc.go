// Package githubapp authenticates as a GitHub App.
//
// AssertionSigner reads the App private key and signs a short-lived RS256 JWT.
// Authenticator presents that JWT to the REST API through go-github, picks the
// first installation returned by GET /app/installations and exchanges the JWT
// for an installation access token. Nothing is cached between calls.
package githubapp
