package pullrequests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ghapp-pr/internal/execshell"
	"github.com/temirov/ghapp-pr/internal/githubapp"
	"github.com/temirov/ghapp-pr/internal/githubcli"
)

const (
	// DefaultPullRequestBody is the attribution message used when no body is supplied.
	DefaultPullRequestBody = "🤖 Generated with [Claude Code](https://claude.ai/code)"

	// BaseBranch is the branch every pull request targets.
	BaseBranch = "main"

	appIDExampleValueConstant                 = "your_app_id"
	privateKeyPathExampleValueConstant        = "/path/to/private-key.pem"
	missingCredentialMessageTemplateConstant  = "❌ %s environment variable is required\n"
	missingCredentialGuidanceTemplateConstant = "   Set it with: export %s=%s\n"
	authenticatingMessageConstant             = "🔐 Authenticating with GitHub App...\n"
	creatingPullRequestTemplateConstant       = "🚀 Creating PR: %s\n"
	branchMessageTemplateConstant             = "📝 Branch: %s\n"
	pullRequestCreatedMessageConstant         = "✅ PR created successfully using GitHub App authentication!\n"
	pullRequestURLTemplateConstant            = "🔗 %s\n"
	commandFailureTemplateConstant            = "❌ Error creating PR: %s\n"
	genericFailureTemplateConstant            = "❌ Error: %s\n"
	missingCredentialErrorTemplateConstant    = "%s environment variable is required"
	authenticationErrorTemplateConstant       = "authentication failed: %s"
	pullRequestCommandErrorTemplateConstant   = "gh pr create exited with code %d"
	pullRequestCommandStderrTemplateConstant  = "gh pr create exited with code %d: %s"
	authenticatorMissingMessageConstant       = "pull request authenticator not configured"
	creatorMissingMessageConstant             = "pull request creator not configured"
	headBranchRequiredMessageConstant         = "branch name must be provided"
	titleRequiredMessageConstant              = "pull request title must be provided"
	pullRequestOpenedLogMessageConstant       = "pull request opened"
	pullRequestFailedLogMessageConstant       = "pull request creation failed"
	logFieldHeadBranchConstant                = "head_branch"
	logFieldBaseBranchConstant                = "base_branch"
	logFieldURLConstant                       = "url"
	logFieldFailureStageConstant              = "stage"
	failureStageCredentialsConstant           = "credentials"
	failureStageAuthenticationConstant        = "authentication"
	failureStagePullRequestConstant           = "pull_request"
)

var (
	// ErrAuthenticatorNotConfigured indicates the service was constructed without an authenticator.
	ErrAuthenticatorNotConfigured = errors.New(authenticatorMissingMessageConstant)

	// ErrPullRequestCreatorNotConfigured indicates the service was constructed without a pull request creator.
	ErrPullRequestCreatorNotConfigured = errors.New(creatorMissingMessageConstant)

	// ErrHeadBranchRequired indicates the request omitted the head branch.
	ErrHeadBranchRequired = errors.New(headBranchRequiredMessageConstant)

	// ErrTitleRequired indicates the request omitted the title.
	ErrTitleRequired = errors.New(titleRequiredMessageConstant)
)

// EnvironmentLookup resolves an environment variable, reporting whether it was set.
type EnvironmentLookup func(key string) (string, bool)

// Authenticator exchanges App credentials for an installation access token.
type Authenticator interface {
	Authenticate(executionContext context.Context, credentials githubapp.Credentials) (string, error)
}

// PullRequestCreator opens pull requests through the GitHub CLI.
type PullRequestCreator interface {
	CreatePullRequest(executionContext context.Context, options githubcli.PullRequestCreateOptions) (string, error)
}

// MissingCredentialError reports an unset credential environment variable.
type MissingCredentialError struct {
	EnvironmentVariable string
}

// Error names the missing variable.
func (missingError MissingCredentialError) Error() string {
	return fmt.Sprintf(missingCredentialErrorTemplateConstant, missingError.EnvironmentVariable)
}

// AuthenticationError wraps a failed App authentication.
type AuthenticationError struct {
	Cause error
}

// Error describes the authentication failure.
func (authenticationError AuthenticationError) Error() string {
	return fmt.Sprintf(authenticationErrorTemplateConstant, authenticationError.Cause)
}

// Unwrap exposes the underlying failure.
func (authenticationError AuthenticationError) Unwrap() error {
	return authenticationError.Cause
}

// PullRequestCommandError reports gh pr create exiting with a non-zero status.
type PullRequestCommandError struct {
	ExitCode      int
	StandardError string
	Cause         error
}

// Error describes the failed command.
func (commandError PullRequestCommandError) Error() string {
	trimmedStandardError := strings.TrimSpace(commandError.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(pullRequestCommandErrorTemplateConstant, commandError.ExitCode)
	}
	return fmt.Sprintf(pullRequestCommandStderrTemplateConstant, commandError.ExitCode, trimmedStandardError)
}

// Unwrap exposes the underlying command failure.
func (commandError PullRequestCommandError) Unwrap() error {
	return commandError.Cause
}

// Request describes the pull request to open.
type Request struct {
	HeadBranch string
	Title      string
	Body       string
}

// Result captures the created pull request.
type Result struct {
	URL string
}

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Logger             *zap.Logger
	Authenticator      Authenticator
	PullRequestCreator PullRequestCreator
	Output             io.Writer
	Configuration      CommandConfiguration
}

// Service opens pull requests authenticated as a GitHub App installation.
type Service struct {
	logger        *zap.Logger
	authenticator Authenticator
	creator       PullRequestCreator
	output        io.Writer
	configuration CommandConfiguration
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Authenticator == nil {
		return nil, ErrAuthenticatorNotConfigured
	}
	if dependencies.PullRequestCreator == nil {
		return nil, ErrPullRequestCreatorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}

	return &Service{
		logger:        logger,
		authenticator: dependencies.Authenticator,
		creator:       dependencies.PullRequestCreator,
		output:        output,
		configuration: dependencies.Configuration.Sanitize(),
	}, nil
}

// CredentialsFromEnvironment reads the App identifier and key path from the configured variables.
func CredentialsFromEnvironment(lookup EnvironmentLookup, configuration CommandConfiguration) githubapp.Credentials {
	sanitizedConfiguration := configuration.Sanitize()
	return githubapp.Credentials{
		AppID:          lookupTrimmed(lookup, sanitizedConfiguration.AppIDEnvironmentVariable),
		PrivateKeyPath: lookupTrimmed(lookup, sanitizedConfiguration.PrivateKeyPathEnvironmentVariable),
	}
}

// CreatePullRequest authenticates as the App and opens a pull request from the head branch into main.
// Every failure is reported on the service output before the typed error is returned.
func (service *Service) CreatePullRequest(executionContext context.Context, credentials githubapp.Credentials, request Request) (Result, error) {
	if missingError := service.checkCredentials(credentials); missingError != nil {
		service.logger.Warn(pullRequestFailedLogMessageConstant, zap.String(logFieldFailureStageConstant, failureStageCredentialsConstant), zap.Error(missingError))
		return Result{}, missingError
	}

	headBranch := strings.TrimSpace(request.HeadBranch)
	if len(headBranch) == 0 {
		service.printf(genericFailureTemplateConstant, ErrHeadBranchRequired)
		return Result{}, ErrHeadBranchRequired
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		service.printf(genericFailureTemplateConstant, ErrTitleRequired)
		return Result{}, ErrTitleRequired
	}

	service.printf(authenticatingMessageConstant)
	accessToken, authenticationError := service.authenticator.Authenticate(executionContext, credentials)
	if authenticationError != nil {
		service.printf(genericFailureTemplateConstant, authenticationError)
		service.logger.Warn(pullRequestFailedLogMessageConstant, zap.String(logFieldFailureStageConstant, failureStageAuthenticationConstant), zap.Error(authenticationError))
		return Result{}, AuthenticationError{Cause: authenticationError}
	}

	service.printf(creatingPullRequestTemplateConstant, request.Title)
	service.printf(branchMessageTemplateConstant, headBranch)

	pullRequestURL, creationError := service.creator.CreatePullRequest(executionContext, githubcli.PullRequestCreateOptions{
		Title:       request.Title,
		Body:        request.Body,
		HeadBranch:  headBranch,
		BaseBranch:  BaseBranch,
		AccessToken: accessToken,
	})
	if creationError != nil {
		service.logger.Warn(pullRequestFailedLogMessageConstant, zap.String(logFieldFailureStageConstant, failureStagePullRequestConstant), zap.Error(creationError))

		var failedError execshell.CommandFailedError
		if errors.As(creationError, &failedError) {
			service.printf(commandFailureTemplateConstant, strings.TrimSpace(failedError.Result.StandardError))
			return Result{}, PullRequestCommandError{
				ExitCode:      failedError.Result.ExitCode,
				StandardError: failedError.Result.StandardError,
				Cause:         creationError,
			}
		}

		service.printf(genericFailureTemplateConstant, creationError)
		return Result{}, creationError
	}

	service.printf(pullRequestCreatedMessageConstant)
	service.printf(pullRequestURLTemplateConstant, pullRequestURL)
	service.logger.Info(
		pullRequestOpenedLogMessageConstant,
		zap.String(logFieldHeadBranchConstant, headBranch),
		zap.String(logFieldBaseBranchConstant, BaseBranch),
		zap.String(logFieldURLConstant, pullRequestURL),
	)

	return Result{URL: pullRequestURL}, nil
}

func (service *Service) checkCredentials(credentials githubapp.Credentials) error {
	if len(strings.TrimSpace(credentials.AppID)) == 0 {
		return service.reportMissingCredential(service.configuration.AppIDEnvironmentVariable, appIDExampleValueConstant)
	}
	if len(strings.TrimSpace(credentials.PrivateKeyPath)) == 0 {
		return service.reportMissingCredential(service.configuration.PrivateKeyPathEnvironmentVariable, privateKeyPathExampleValueConstant)
	}
	return nil
}

func (service *Service) reportMissingCredential(environmentVariable string, exampleValue string) error {
	service.printf(missingCredentialMessageTemplateConstant, environmentVariable)
	service.printf(missingCredentialGuidanceTemplateConstant, environmentVariable, exampleValue)
	return MissingCredentialError{EnvironmentVariable: environmentVariable}
}

func (service *Service) printf(template string, arguments ...any) {
	_, _ = fmt.Fprintf(service.output, template, arguments...)
}

func lookupTrimmed(lookup EnvironmentLookup, key string) string {
	if lookup == nil {
		return ""
	}
	value, exists := lookup(key)
	if !exists {
		return ""
	}
	return strings.TrimSpace(value)
}
