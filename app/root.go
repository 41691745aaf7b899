// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-oidc-login",
	Short: "Go OIDC Login is a web login service for OpenID Connect providers",
	Long: `Go OIDC Login is a self-hosted web login service that authenticates
users against administrator-approved OpenID Connect identity providers
and maps them to local accounts.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
