package pullrequests

import (
	"strings"

	"github.com/temirov/ghapp-pr/internal/githubapp"
)

const (
	// DefaultAppIDEnvironmentVariable names the variable holding the GitHub App identifier.
	DefaultAppIDEnvironmentVariable = "CLAUDE_APP_ID"

	// DefaultPrivateKeyPathEnvironmentVariable names the variable holding the private key location.
	DefaultPrivateKeyPathEnvironmentVariable = "CLAUDE_APP_PRIVATE_KEY_PATH"

	configurationKeySeparatorConstant                 = "."
	apiBaseURLConfigurationKeyConstant                = "api_base_url"
	appIDEnvironmentConfigurationKeyConstant          = "app_id_env"
	privateKeyPathEnvironmentConfigurationKeyConstant = "private_key_path_env"
)

// CommandConfiguration captures configuration values for the pull request command.
type CommandConfiguration struct {
	APIBaseURL                        string `mapstructure:"api_base_url"`
	AppIDEnvironmentVariable          string `mapstructure:"app_id_env"`
	PrivateKeyPathEnvironmentVariable string `mapstructure:"private_key_path_env"`
}

// DefaultCommandConfiguration provides the public GitHub endpoint and the stock variable names.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		APIBaseURL:                        githubapp.DefaultAPIBaseURL,
		AppIDEnvironmentVariable:          DefaultAppIDEnvironmentVariable,
		PrivateKeyPathEnvironmentVariable: DefaultPrivateKeyPathEnvironmentVariable,
	}
}

// DefaultConfigurationValues returns viper defaults rooted at the provided key prefix.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		qualifyKey(keyPrefix, apiBaseURLConfigurationKeyConstant):                defaults.APIBaseURL,
		qualifyKey(keyPrefix, appIDEnvironmentConfigurationKeyConstant):          defaults.AppIDEnvironmentVariable,
		qualifyKey(keyPrefix, privateKeyPathEnvironmentConfigurationKeyConstant): defaults.PrivateKeyPathEnvironmentVariable,
	}
}

// Sanitize trims values and restores defaults for blank entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		APIBaseURL:                        strings.TrimSpace(configuration.APIBaseURL),
		AppIDEnvironmentVariable:          strings.TrimSpace(configuration.AppIDEnvironmentVariable),
		PrivateKeyPathEnvironmentVariable: strings.TrimSpace(configuration.PrivateKeyPathEnvironmentVariable),
	}

	if len(sanitized.APIBaseURL) == 0 {
		sanitized.APIBaseURL = defaults.APIBaseURL
	}
	if len(sanitized.AppIDEnvironmentVariable) == 0 {
		sanitized.AppIDEnvironmentVariable = defaults.AppIDEnvironmentVariable
	}
	if len(sanitized.PrivateKeyPathEnvironmentVariable) == 0 {
		sanitized.PrivateKeyPathEnvironmentVariable = defaults.PrivateKeyPathEnvironmentVariable
	}

	return sanitized
}

func qualifyKey(keyPrefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(keyPrefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
