package pullrequests

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghapp-pr/internal/execshell"
	"github.com/temirov/ghapp-pr/internal/githubapp"
	"github.com/temirov/ghapp-pr/internal/githubcli"
)

const (
	commandUseNameConstant          = "pr-create"
	commandArgumentsUsageConstant   = "<branch> <title> [body]"
	commandUsageTemplateConstant    = commandUseNameConstant + " " + commandArgumentsUsageConstant
	commandExampleTemplateConstant  = "ghapp-pr pr-create feature/new-feature 'feat: add new feature' 'This change adds...'"
	commandShortDescriptionConstant = "Open a pull request authenticated as a GitHub App"
	commandLongDescriptionConstant  = "pr-create signs a GitHub App assertion, exchanges it for an installation access token on the first installation of the App, and runs gh pr create from the given branch into main with that token. The App identifier and private key path are read from the configured environment variables."
	usageLineTemplateConstant       = "Usage: %s %s\n"
	exampleLineTemplateConstant     = "Example: %s\n"
	missingArgumentsMessageConstant = "branch and title arguments are required"
	minimumArgumentCountConstant    = 2
	branchArgumentIndexConstant     = 0
	titleArgumentIndexConstant      = 1
	bodyArgumentIndexConstant       = 2
)

// ErrMissingArguments indicates the branch or title argument was omitted.
var ErrMissingArguments = errors.New(missingArgumentsMessageConstant)

// LoggerProvider yields a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the pr-create command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	EnvironmentLookup     EnvironmentLookup
	Authenticator         Authenticator
	PullRequestCreator    PullRequestCreator
	HTTPClient            *http.Client
}

// Build constructs the pr-create command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUsageTemplateConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		RunE:    builder.run,
		Args:    cobra.ArbitraryArgs,
		Example: commandExampleTemplateConstant,
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) < minimumArgumentCountConstant {
		fmt.Fprintf(command.OutOrStdout(), usageLineTemplateConstant, command.CommandPath(), commandArgumentsUsageConstant)
		fmt.Fprintf(command.OutOrStdout(), exampleLineTemplateConstant, commandExampleTemplateConstant)
		return ErrMissingArguments
	}

	request := Request{
		HeadBranch: arguments[branchArgumentIndexConstant],
		Title:      arguments[titleArgumentIndexConstant],
		Body:       DefaultPullRequestBody,
	}
	if len(arguments) > bodyArgumentIndexConstant {
		request.Body = arguments[bodyArgumentIndexConstant]
	}

	configuration := builder.resolveConfiguration()
	logger := builder.resolveLogger()

	authenticator, authenticatorError := builder.resolveAuthenticator(logger, configuration)
	if authenticatorError != nil {
		return authenticatorError
	}

	creator, creatorError := builder.resolvePullRequestCreator(logger)
	if creatorError != nil {
		return creatorError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:             logger,
		Authenticator:      authenticator,
		PullRequestCreator: creator,
		Output:             command.OutOrStdout(),
		Configuration:      configuration,
	})
	if serviceError != nil {
		return serviceError
	}

	credentials := CredentialsFromEnvironment(builder.resolveEnvironmentLookup(), configuration)
	_, creationError := service.CreatePullRequest(command.Context(), credentials, request)
	return creationError
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveEnvironmentLookup() EnvironmentLookup {
	if builder.EnvironmentLookup == nil {
		return os.LookupEnv
	}
	return builder.EnvironmentLookup
}

func (builder *CommandBuilder) resolveAuthenticator(logger *zap.Logger, configuration CommandConfiguration) (Authenticator, error) {
	if builder.Authenticator != nil {
		return builder.Authenticator, nil
	}
	return githubapp.NewAuthenticator(githubapp.AuthenticatorDependencies{
		Logger:     logger,
		Signer:     githubapp.NewAssertionSigner(nil, nil),
		HTTPClient: builder.HTTPClient,
		APIBaseURL: configuration.APIBaseURL,
	})
}

func (builder *CommandBuilder) resolvePullRequestCreator(logger *zap.Logger) (PullRequestCreator, error) {
	if builder.PullRequestCreator != nil {
		return builder.PullRequestCreator, nil
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}
	return githubcli.NewClient(shellExecutor)
}
