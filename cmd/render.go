package cmd

import (
	"fmt"

	"apkdrop/internal/artifact"
	"apkdrop/internal/changelog"
	"apkdrop/internal/mailtemplate"
	"apkdrop/internal/release"

	"github.com/spf13/cobra"
)

var renderFlags struct {
	releaseDir    string
	appName       string
	appVersion    string
	changelogFile string
	templateFile  string
	downloadURL   string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Preview the release email without uploading or sending",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		f := renderFlags

		version := f.appVersion
		if version == "" {
			if f.releaseDir == "" {
				fatalf("pass --release.dir or --app.version")
			}
			art, err := artifact.Locate(f.releaseDir)
			if err != nil {
				exitf(release.ExitParse, "failed to read build descriptor: %v", err)
			}
			version = art.Version
		}

		changes, err := changelog.Latest(f.changelogFile)
		if err != nil {
			exitf(release.ExitChangelog, "failed to extract changes: %v", err)
		}

		email, err := mailtemplate.Render(f.templateFile, mailtemplate.Values{
			AppName:     f.appName,
			AppVersion:  version,
			DownloadURL: f.downloadURL,
			ChangeLog:   changes,
		})
		if err != nil {
			exitf(release.ExitTemplate, "failed to render template: %v", err)
		}

		fmt.Printf("File:    %s\n", artifact.TargetFileName(f.appName, version))
		fmt.Printf("Subject: %s\n\n%s\n", email.Subject, email.Body)
	},
}

func init() {
	fl := renderCmd.Flags()
	fl.StringVar(&renderFlags.releaseDir, "release.dir", "", "path to release folder containing output.json")
	fl.StringVar(&renderFlags.appName, "app.name", "", "app name")
	fl.StringVar(&renderFlags.appVersion, "app.version", "", "app version; read from output.json when empty")
	fl.StringVar(&renderFlags.changelogFile, "changelog.file", "", "path to changelog file")
	fl.StringVar(&renderFlags.templateFile, "template.file", "", "path to email template file")
	fl.StringVar(&renderFlags.downloadURL, "download.url", "<download-url>", "value for {app_download_url}")

	for _, name := range []string{"app.name", "changelog.file", "template.file"} {
		_ = renderCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(renderCmd)
}
