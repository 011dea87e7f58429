package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the bird application
var rootCmd = &cobra.Command{
	Use:   "bird",
	Short: "MCP server for Todoist, Anki, Obsidian and Google Calendar",
	Long: `bird is an MCP (Model Context Protocol) server that gives AI assistants
one tool surface over a personal productivity stack:

  - Todoist tasks, projects and statistics
  - Anki decks, notes and cards through AnkiConnect
  - An Obsidian vault on disk
  - Google Calendar events and free-slot search

Each service is optional. Services without configuration stay registered
and report "not configured" when called.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "bird version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
