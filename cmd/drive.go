package cmd

import (
	"fmt"

	"apkdrop/internal/drive"

	"github.com/spf13/cobra"
)

var (
	driveCredentials string
	listLimit        int64
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Inspect or clean up files uploaded to Google Drive",
}

var driveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent files owned by the service account",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, closeLog := driveService(cmd)
		defer closeLog()

		files, err := svc.List(cmd.Context(), listLimit)
		if err != nil {
			fatalf("failed to list files: %v", err)
		}
		if len(files) == 0 {
			fmt.Println("No files found.")
			return
		}
		for _, f := range files {
			link := firstNonEmpty(f.WebContentLink, f.WebViewLink)
			fmt.Printf("%s  %s  %s  %s\n", f.Id, f.CreatedTime, f.Name, link)
		}
	},
}

var driveDeleteCmd = &cobra.Command{
	Use:   "delete <file-id>...",
	Short: "Permanently delete files, skipping the trash",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, closeLog := driveService(cmd)
		defer closeLog()

		n := svc.Delete(cmd.Context(), args...)
		fmt.Printf("Deleted %d of %d file(s).\n", n, len(args))
	},
}

func driveService(cmd *cobra.Command) (*drive.Service, func()) {
	cfg := loadConfig()
	credentials := absCredentials(firstNonEmpty(driveCredentials, cfg.CredentialsPath))

	log := newLogger(cfg)
	svc, err := drive.NewService(cmd.Context(), credentials, log.Logger)
	if err != nil {
		log.Close()
		fatalf("failed to initialize Google Drive client: %v", err)
	}
	return svc, func() { log.Close() }
}

func init() {
	driveCmd.PersistentFlags().StringVar(&driveCredentials, "client_secrets.file", "", "Google service account JSON file (default from config)")
	driveListCmd.Flags().Int64VarP(&listLimit, "limit", "n", 10, "maximum number of files to list")

	driveCmd.AddCommand(driveListCmd)
	driveCmd.AddCommand(driveDeleteCmd)
	rootCmd.AddCommand(driveCmd)
}
