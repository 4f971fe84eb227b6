package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cli holds the flags and the lazily built app shared by every command, including the
// commands run from inside the shell.
type cli struct {
	configPath  string
	logLevel    string
	showMetrics bool

	app *app
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Administer a multi-tenant RAG backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" || c.app != nil {
				return nil
			}
			a, err := newApp(c.configPath, c.logLevel)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.showMetrics && c.app != nil {
				_ = c.app.writeMetrics(cmd.OutOrStdout())
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file path (YAML), defaults to $RAGADMIN_CONFIG")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&c.showMetrics, "metrics", false, "Print token lifecycle metrics after the command")

	cmd.AddCommand(
		loginCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		statusCmd(c),
		companiesCmd(c),
		usersCmd(c),
		docsCmd(c),
		websitesCmd(c),
		askCmd(c),
		shellCmd(c),
		metricsCmd(c),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"offline": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func metricsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the token lifecycle counters of this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.writeMetrics(cmd.OutOrStdout())
		},
	}
}
