// Package cli builds the ghapp-pr command-line interface. It wires the Cobra
// command tree, loads dotenv files and layered configuration, and constructs
// the zap logger handed to each subcommand.
package cli
