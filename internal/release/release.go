// Package release runs the release notification pipeline: locate the
// artifact, upload and share it, extract the changelog, render the email
// and send it. The first failing stage ends the run; nothing already done
// is rolled back.
package release

import (
	"context"
	"log/slog"
	"strings"

	"apkdrop/internal/artifact"
	"apkdrop/internal/changelog"
	"apkdrop/internal/mailer"
	"apkdrop/internal/mailtemplate"
	"apkdrop/internal/recipients"
	"apkdrop/internal/structures"
)

// Storage uploads an artifact and shares it.
type Storage interface {
	Upload(ctx context.Context, name, localPath string) (string, error)
	GrantRead(ctx context.Context, fileID string, to []structures.Recipient) structures.GrantReport
	PublicLink(ctx context.Context, fileID string) (string, error)
}

// Sender delivers the release email.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Request is one release run's input.
type Request struct {
	ReleaseDir    string
	AppName       string
	ChangelogPath string
	TemplatePath  string
	From          string
	Recipients    []structures.Recipient
}

// Result describes a completed run. Fields are filled as stages succeed,
// so a partial Result accompanies a StageError.
type Result struct {
	Artifact    structures.Artifact
	FileName    string
	FileID      string
	DownloadURL string
	Grants      structures.GrantReport
	Changes     string
	Email       mailtemplate.Email
}

type Runner struct {
	Storage Storage
	Sender  Sender
	Log     *slog.Logger
}

// Run executes every stage in order.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}
	log := r.Log

	log.Info("locating artifact", "release_dir", req.ReleaseDir)
	art, err := artifact.Locate(req.ReleaseDir)
	if err != nil {
		return res, r.fail(StageParse, err)
	}
	res.Artifact = art
	res.FileName = artifact.TargetFileName(req.AppName, art.Version)
	log.Info("artifact found", "version", art.Version, "path", art.Path, "target", res.FileName)

	if err := r.publish(ctx, req, res); err != nil {
		return res, r.fail(StageUpload, err)
	}

	res.Changes, err = changelog.Latest(req.ChangelogPath)
	if err != nil {
		return res, r.fail(StageChangelog, err)
	}
	log.Info("changelog extracted", "lines", countLines(res.Changes))

	res.Email, err = mailtemplate.Render(req.TemplatePath, mailtemplate.Values{
		AppName:     req.AppName,
		AppVersion:  art.Version,
		DownloadURL: res.DownloadURL,
		ChangeLog:   res.Changes,
	})
	if err != nil {
		return res, r.fail(StageTemplate, err)
	}
	log.Info("email rendered", "subject", res.Email.Subject)

	err = r.Sender.Send(ctx, mailer.Message{
		From:    req.From,
		To:      req.Recipients,
		Subject: res.Email.Subject,
		Body:    res.Email.Body,
	})
	if err != nil {
		return res, r.fail(StageNotify, err)
	}
	log.Info("release email sent", "to", strings.Join(recipients.Emails(req.Recipients), ","))
	return res, nil
}

func (r *Runner) publish(ctx context.Context, req Request, res *Result) error {
	id, err := r.Storage.Upload(ctx, res.FileName, res.Artifact.Path)
	if err != nil {
		return err
	}
	res.FileID = id

	res.Grants = r.Storage.GrantRead(ctx, id, req.Recipients)
	if !res.Grants.OK() {
		r.Log.Warn("some recipients were not granted access", "granted", len(res.Grants.Granted), "failed", len(res.Grants.Failed))
	}

	res.DownloadURL, err = r.Storage.PublicLink(ctx, id)
	if err != nil {
		return err
	}
	r.Log.Info("artifact shared", "file_id", id, "url", res.DownloadURL)
	return nil
}

func (r *Runner) fail(stage Stage, err error) error {
	r.Log.Error("release run aborted", "stage", string(stage), "err", err)
	return &StageError{Stage: stage, Err: err}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
