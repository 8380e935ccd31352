package githubapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v45/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIBaseURL is the public GitHub REST endpoint.
	DefaultAPIBaseURL = "https://api.github.com/"

	baseURLPathSeparatorConstant        = "/"
	bearerTokenTypeConstant             = "Bearer"
	noInstallationsMessageConstant      = "no installations found"
	emptyAccessTokenMessageConstant     = "access token response did not include a token"
	loggerNotConfiguredMessageConstant  = "authenticator logger not configured"
	signerNotConfiguredMessageConstant  = "authenticator signer not configured"
	invalidBaseURLTemplateConstant      = "invalid api base url %q: %w"
	apiRequestErrorTemplateConstant     = "%s request failed with status %d: %s"
	apiTransportErrorTemplateConstant   = "%s request failed: %s"
	authenticationErrorTemplateConstant = "github app authentication failed during %s: %s"
	signingAssertionMessageConstant     = "signed github app assertion"
	installationResolvedMessageConstant = "resolved github app installation"
	accessTokenCreatedMessageConstant   = "created installation access token"
	logFieldAppIDConstant               = "app_id"
	logFieldInstallationIDConstant      = "installation_id"
	logFieldInstallationCountConstant   = "installation_count"
	logFieldAccountConstant             = "account"
	logFieldAPIBaseURLConstant          = "api_base_url"
	missingSchemeOrHostMessageConstant  = "scheme and host required"
)

// AuthenticationStep names one stage of the installation token exchange.
type AuthenticationStep string

// Authentication steps in execution order.
const (
	AuthenticationStepSignAssertion     AuthenticationStep = AuthenticationStep("SignAssertion")
	AuthenticationStepListInstallations AuthenticationStep = AuthenticationStep("ListInstallations")
	AuthenticationStepCreateAccessToken AuthenticationStep = AuthenticationStep("CreateAccessToken")
)

var (
	// ErrNoInstallations indicates the App is not installed anywhere.
	ErrNoInstallations = errors.New(noInstallationsMessageConstant)

	// ErrEmptyAccessToken indicates the token exchange succeeded without returning a token.
	ErrEmptyAccessToken = errors.New(emptyAccessTokenMessageConstant)

	// ErrLoggerNotConfigured indicates the authenticator was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

	// ErrSignerNotConfigured indicates the authenticator was constructed without a signer.
	ErrSignerNotConfigured = errors.New(signerNotConfiguredMessageConstant)
)

// APIRequestError reports a failed GitHub REST call. StatusCode is zero when no response arrived.
type APIRequestError struct {
	Step       AuthenticationStep
	StatusCode int
	Cause      error
}

// Error describes the failed request.
func (requestError APIRequestError) Error() string {
	if requestError.StatusCode == 0 {
		return fmt.Sprintf(apiTransportErrorTemplateConstant, requestError.Step, requestError.Cause)
	}
	return fmt.Sprintf(apiRequestErrorTemplateConstant, requestError.Step, requestError.StatusCode, requestError.Cause)
}

// Unwrap exposes the underlying client error.
func (requestError APIRequestError) Unwrap() error {
	return requestError.Cause
}

// AuthenticationError wraps a failure of one authentication step.
type AuthenticationError struct {
	Step  AuthenticationStep
	Cause error
}

// Error describes the failed step.
func (authenticationError AuthenticationError) Error() string {
	return fmt.Sprintf(authenticationErrorTemplateConstant, authenticationError.Step, authenticationError.Cause)
}

// Unwrap exposes the step failure.
func (authenticationError AuthenticationError) Unwrap() error {
	return authenticationError.Cause
}

// JWTSigner signs App assertions.
type JWTSigner interface {
	SignJWT(credentials Credentials) (string, error)
}

// AuthenticatorDependencies enumerates collaborators required by the authenticator.
type AuthenticatorDependencies struct {
	Logger     *zap.Logger
	Signer     JWTSigner
	HTTPClient *http.Client
	APIBaseURL string
}

// Authenticator exchanges GitHub App credentials for an installation access token.
type Authenticator struct {
	logger     *zap.Logger
	signer     JWTSigner
	httpClient *http.Client
	apiBaseURL *url.URL
}

// NewAuthenticator validates dependencies and constructs an Authenticator.
func NewAuthenticator(dependencies AuthenticatorDependencies) (*Authenticator, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.Signer == nil {
		return nil, ErrSignerNotConfigured
	}

	apiBaseURL, parseError := parseAPIBaseURL(dependencies.APIBaseURL)
	if parseError != nil {
		return nil, parseError
	}

	return &Authenticator{
		logger:     dependencies.Logger,
		signer:     dependencies.Signer,
		httpClient: dependencies.HTTPClient,
		apiBaseURL: apiBaseURL,
	}, nil
}

// Authenticate signs an assertion, resolves the first installation and returns its access token.
func (authenticator *Authenticator) Authenticate(executionContext context.Context, credentials Credentials) (string, error) {
	signedAssertion, signingError := authenticator.signer.SignJWT(credentials)
	if signingError != nil {
		return "", AuthenticationError{Step: AuthenticationStepSignAssertion, Cause: signingError}
	}
	authenticator.logger.Debug(signingAssertionMessageConstant, zap.String(logFieldAppIDConstant, credentials.AppID))

	installationID, installationError := authenticator.ResolveInstallationID(executionContext, signedAssertion)
	if installationError != nil {
		return "", AuthenticationError{Step: AuthenticationStepListInstallations, Cause: installationError}
	}

	accessToken, tokenError := authenticator.CreateAccessToken(executionContext, signedAssertion, installationID)
	if tokenError != nil {
		return "", AuthenticationError{Step: AuthenticationStepCreateAccessToken, Cause: tokenError}
	}

	return accessToken, nil
}

// ResolveInstallationID lists the App installations and returns the first one.
// No filtering by account is applied.
func (authenticator *Authenticator) ResolveInstallationID(executionContext context.Context, signedAssertion string) (int64, error) {
	client := authenticator.newClient(executionContext, signedAssertion)

	installations, response, listError := client.Apps.ListInstallations(executionContext, nil)
	if listError != nil {
		return 0, newAPIRequestError(AuthenticationStepListInstallations, response, listError)
	}

	if len(installations) == 0 {
		return 0, ErrNoInstallations
	}

	firstInstallation := installations[0]
	authenticator.logger.Info(
		installationResolvedMessageConstant,
		zap.Int64(logFieldInstallationIDConstant, firstInstallation.GetID()),
		zap.Int(logFieldInstallationCountConstant, len(installations)),
		zap.String(logFieldAccountConstant, firstInstallation.GetAccount().GetLogin()),
		zap.String(logFieldAPIBaseURLConstant, authenticator.apiBaseURL.String()),
	)

	return firstInstallation.GetID(), nil
}

// CreateAccessToken exchanges the assertion for an installation access token.
func (authenticator *Authenticator) CreateAccessToken(executionContext context.Context, signedAssertion string, installationID int64) (string, error) {
	client := authenticator.newClient(executionContext, signedAssertion)

	installationToken, response, createError := client.Apps.CreateInstallationToken(executionContext, installationID, &github.InstallationTokenOptions{})
	if createError != nil {
		return "", newAPIRequestError(AuthenticationStepCreateAccessToken, response, createError)
	}

	accessToken := strings.TrimSpace(installationToken.GetToken())
	if len(accessToken) == 0 {
		return "", ErrEmptyAccessToken
	}

	authenticator.logger.Info(accessTokenCreatedMessageConstant, zap.Int64(logFieldInstallationIDConstant, installationID))
	return accessToken, nil
}

func (authenticator *Authenticator) newClient(executionContext context.Context, bearerToken string) *github.Client {
	clientContext := executionContext
	if authenticator.httpClient != nil {
		clientContext = context.WithValue(clientContext, oauth2.HTTPClient, authenticator.httpClient)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken, TokenType: bearerTokenTypeConstant})
	client := github.NewClient(oauth2.NewClient(clientContext, tokenSource))

	baseURL := *authenticator.apiBaseURL
	client.BaseURL = &baseURL
	return client
}

func newAPIRequestError(step AuthenticationStep, response *github.Response, cause error) APIRequestError {
	statusCode := 0
	if response != nil && response.Response != nil {
		statusCode = response.StatusCode
	}
	return APIRequestError{Step: step, StatusCode: statusCode, Cause: cause}
}

func parseAPIBaseURL(rawBaseURL string) (*url.URL, error) {
	trimmedBaseURL := strings.TrimSpace(rawBaseURL)
	if len(trimmedBaseURL) == 0 {
		trimmedBaseURL = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(trimmedBaseURL, baseURLPathSeparatorConstant) {
		trimmedBaseURL += baseURLPathSeparatorConstant
	}

	parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, rawBaseURL, parseError)
	}
	if len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
		return nil, fmt.Errorf(invalidBaseURLTemplateConstant, rawBaseURL, errors.New(missingSchemeOrHostMessageConstant))
	}
	return parsedBaseURL, nil
}
