// Package utils holds the ambient plumbing shared by commands: ConfigurationLoader
// merges embedded defaults, configuration files and environment overrides through
// Viper, LoggerFactory builds zap loggers, and LoadEnvironmentFile imports dotenv files.
package utils
