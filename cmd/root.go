package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"apkdrop/internal/config"
	"apkdrop/internal/logging"
	"apkdrop/internal/release"
	"apkdrop/internal/structures"

	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "apkdrop",
	Short: "Publish an Android build to Google Drive and email the release notes",
	Long: `apkdrop uploads a built APK to Google Drive, shares it with a list of
recipients, renders a release email from a template and the latest changelog
section, and sends it through SendGrid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(release.ExitUsage)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log.level", "", "log level: debug, info, warn, error")
}

func fatalf(format string, args ...any) {
	exitf(release.ExitUsage, format, args...)
}

func exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

// loadConfig resolves the config file and environment, then applies the
// persistent flags.
func loadConfig() structures.Config {
	cfg, err := config.Resolve()
	if err != nil {
		fatalf("failed to load config: %v", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}

func newLogger(cfg structures.Config) *logging.Logger {
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fatalf("failed to set up logging: %v", err)
	}
	return log
}

func absCredentials(path string) string {
	if path == "" {
		fatalf("Google credentials not set. Pass --client_secrets.file, set %s, or run 'apkdrop init'.", config.EnvCredentials)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fatalf("invalid credentials path: %v", err)
	}
	return abs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
