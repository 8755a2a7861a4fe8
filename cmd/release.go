package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"apkdrop/internal/config"
	"apkdrop/internal/drive"
	"apkdrop/internal/logging"
	"apkdrop/internal/mailer"
	"apkdrop/internal/notification"
	"apkdrop/internal/recipients"
	"apkdrop/internal/release"
	"apkdrop/internal/structures"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type releaseOptions struct {
	releaseDir         string
	appName            string
	changelogFile      string
	templateFile       string
	sendgridHook       string
	sendgridAuthPrefix string
	sendgridAuth       string
	emailFrom          string
	emailTo            string
	credentialsFile    string
	notifyDesktop      bool
}

var releaseFlags releaseOptions

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Upload, share and announce a release build",
	Long: `Reads output.json from the release directory, uploads the APK to Google
Drive, shares it with every --email.to recipient, and emails them the download
link and the latest changelog section.

Exit codes: 1 upload, 2 email, 3 template, 4 changelog, 5 build descriptor,
64 invalid flags or configuration.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := runRelease(cmd.Context(), releaseFlags, cfg, os.Stdout); err != nil {
			exitf(release.ExitCode(err), "release failed: %v", err)
		}
	},
}

// runRelease validates the flags against cfg and runs the pipeline. Errors
// found before the pipeline starts are plain errors (usage); pipeline
// failures are *release.StageError.
func runRelease(ctx context.Context, f releaseOptions, cfg structures.Config, stdout io.Writer) error {
	to, err := recipients.Parse(f.emailTo)
	if err != nil {
		return fmt.Errorf("invalid --email.to: %w", err)
	}

	token := firstNonEmpty(f.sendgridAuth, cfg.SendGridAuth)
	if token == "" {
		return errors.New("SendGrid key not set. Pass --sendgrid.auth or run 'apkdrop init'")
	}
	from := firstNonEmpty(f.emailFrom, cfg.EmailFrom)
	if from == "" {
		return errors.New("sender address not set. Pass --email.from or run 'apkdrop init'")
	}
	credentials := firstNonEmpty(f.credentialsFile, cfg.CredentialsPath)
	if credentials == "" {
		return fmt.Errorf("Google credentials not set. Pass --client_secrets.file, set %s, or run 'apkdrop init'", config.EnvCredentials)
	}
	credentials, err = filepath.Abs(credentials)
	if err != nil {
		return fmt.Errorf("invalid credentials path: %w", err)
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer log.Close()

	runID := uuid.NewString()
	runLog := log.With("run_id", runID)

	var version string
	runErr := func() error {
		store, err := drive.NewService(ctx, credentials, runLog)
		if err != nil {
			return &release.StageError{Stage: release.StageUpload, Err: fmt.Errorf("initialize Google Drive client: %w", err)}
		}
		store.SetRunID(runID)
		sender := mailer.NewClient(
			firstNonEmpty(f.sendgridHook, cfg.SendGridHook),
			firstNonEmpty(f.sendgridAuthPrefix, cfg.SendGridAuthPrefix),
			token,
			cfg.HTTPTimeout,
		)
		runner := &release.Runner{Storage: store, Sender: sender, Log: runLog}

		res, err := runner.Run(ctx, release.Request{
			ReleaseDir:    f.releaseDir,
			AppName:       f.appName,
			ChangelogPath: f.changelogFile,
			TemplatePath:  f.templateFile,
			From:          from,
			Recipients:    to,
		})
		version = res.Artifact.Version
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "✅ %s %s sent to %d recipient(s)\n", f.appName, version, len(to))
		fmt.Fprintf(stdout, "🔗 %s\n", res.DownloadURL)
		return nil
	}()

	if f.notifyDesktop {
		_ = notification.RunFinished(f.appName, version, runErr)
	}
	return runErr
}

func init() {
	fl := releaseCmd.Flags()
	fl.StringVar(&releaseFlags.releaseDir, "release.dir", "", "path to release folder containing output.json")
	fl.StringVar(&releaseFlags.appName, "app.name", "", "app name, used in the file name and email")
	fl.StringVar(&releaseFlags.changelogFile, "changelog.file", "", "path to changelog file")
	fl.StringVar(&releaseFlags.templateFile, "template.file", "", "path to email template file")
	fl.StringVar(&releaseFlags.sendgridHook, "sendgrid.hook", "", "SendGrid mail/send URL (default from config)")
	fl.StringVar(&releaseFlags.sendgridAuthPrefix, "sendgrid.authprefix", "", "Authorization scheme, e.g. Bearer (default from config)")
	fl.StringVar(&releaseFlags.sendgridAuth, "sendgrid.auth", "", "SendGrid API key (default from config)")
	fl.StringVar(&releaseFlags.emailFrom, "email.from", "", "sender address (default from config)")
	fl.StringVar(&releaseFlags.emailTo, "email.to", "", `recipients as JSON, e.g. [{"email":"qa@example.com"}]`)
	fl.StringVar(&releaseFlags.credentialsFile, "client_secrets.file", "", "Google service account JSON file (default from config)")
	fl.BoolVar(&releaseFlags.notifyDesktop, "notify.desktop", false, "show a desktop notification when the run finishes")

	for _, name := range []string{"release.dir", "app.name", "changelog.file", "template.file", "email.to"} {
		_ = releaseCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(releaseCmd)
}
