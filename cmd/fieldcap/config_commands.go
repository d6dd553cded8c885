package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldcap/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage fieldcap configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data dir:        %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "Log dir:         %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Remote URL:      %s\n", cfg.Remote.BaseURL)
			fmt.Fprintf(out, "Organization:    %s\n", cfg.Session.OrganizationID)
			fmt.Fprintf(out, "User:            %s\n", cfg.Session.UserID)
			fmt.Fprintf(out, "Concurrency:     %d\n", cfg.Queue.Concurrency)
			fmt.Fprintf(out, "Max retries:     %d\n", cfg.Queue.MaxRetries)
			fmt.Fprintf(out, "Backoff (s):     %v\n", cfg.Queue.BackoffSeconds)
			fmt.Fprintf(out, "Poll interval:   %ds\n", cfg.Queue.PollInterval)
			fmt.Fprintf(out, "Currency:        %s\n", cfg.Queue.Currency)
			fmt.Fprintf(out, "Log format:      %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log level:       %s\n", cfg.Logging.Level)
			if cfg.Notifications.NtfyTopic != "" {
				fmt.Fprintf(out, "Ntfy topic:      %s\n", cfg.Notifications.NtfyTopic)
			}
			return nil
		},
	}
}
