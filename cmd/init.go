package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"apkdrop/internal/config"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize apkdrop configuration",
	Long:  `Store the Google service account path and SendGrid settings used by 'apkdrop release'.`,
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)
		prompt := func(label, current string) string {
			if current != "" {
				fmt.Printf("%s (default: %s): ", label, current)
			} else {
				fmt.Printf("%s: ", label)
			}
			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(input)
			if input == "" {
				return current
			}
			return input
		}

		cfg, err := config.Load()
		if err != nil {
			fatalf("failed to load config: %v", err)
		}

		credPath := prompt("Enter path to service account JSON", cfg.CredentialsPath)
		if credPath == "" {
			fatalf("credentials path cannot be empty")
		}
		absPath, err := filepath.Abs(credPath)
		if err != nil {
			fatalf("Invalid path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			fmt.Printf("⚠️  %s is not readable yet: %v\n", absPath, err)
		}
		cfg.CredentialsPath = absPath

		fmt.Print("\n--- SendGrid ---\n")
		cfg.SendGridHook = prompt("Mail send URL", firstNonEmpty(cfg.SendGridHook, config.DefaultSendGridHook))
		cfg.SendGridAuthPrefix = prompt("Authorization prefix", firstNonEmpty(cfg.SendGridAuthPrefix, config.DefaultSendGridAuthPrefix))
		cfg.SendGridAuth = prompt("API key (press Enter to keep current or skip)", cfg.SendGridAuth)
		cfg.EmailFrom = prompt("Sender address", cfg.EmailFrom)

		if err := config.Save(cfg); err != nil {
			fatalf("Failed to save config: %v", err)
		}

		path, _ := config.Path()
		fmt.Printf("📦 Configuration saved to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
