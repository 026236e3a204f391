// Package main provides the CLI entrypoint for focusguard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/focusguard/internal/config"
	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/report"
	"github.com/ayusman/focusguard/internal/store"
)

var (
	configPath string
	logLevel   string

	// settings is resolved once per invocation by the root pre-run hook.
	settings config.Settings

	historyLimit   int
	historySubject string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "focusguard",
		Short:             "Study presence monitor and air-writing canvas",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: loadSettings,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newAirwriteCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSubjectsCmd())
	rootCmd.AddCommand(newPluginsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	s, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "log-level", &s.LogLevel, logLevel)
	settings = s
	log.Init(settings.LogLevel)
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sessions and progress",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "number of sessions to list")
	cmd.Flags().StringVar(&historySubject, "subject", "", "only sessions for this subject")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	st, err := store.New(settings.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ctx := cmd.Context()
	records, err := st.Sessions().List(ctx, store.ListOptions{Limit: historyLimit, Subject: historySubject})
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	stats, err := st.Sessions().Stats(ctx, store.ListOptions{Subject: historySubject})
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.History(records))
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.Stats(stats))
	return nil
}

func newSubjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List subject presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), report.Subjects(settings.Subjects.List(), settings.Subject))
			return nil
		},
	}
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := discoverPlugins()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			list := mgr.List()
			if len(list) == 0 {
				fmt.Fprintf(out, "No plugins found in %s\n", mgr.PluginDir())
				return nil
			}
			for _, p := range list {
				fmt.Fprintf(out, "%-16s %-8s %s\n", p.Manifest.Name, p.Manifest.Version, strings.Join(p.Manifest.Actions, ", "))
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyBoolFlag(cmd *cobra.Command, name string, target *bool, value bool) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		log.Warn("failed to close db", "error", err)
	}
}

func lastSubject(ctx context.Context, st *store.Store) string {
	name, err := st.Settings().GetDefault(ctx, store.SettingLastSubject, "")
	if err != nil {
		log.Warn("failed to read last subject", "error", err)
	}
	return name
}
