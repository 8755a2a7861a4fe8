package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"apkdrop/internal/artifact"
	"apkdrop/internal/changelog"
	"apkdrop/internal/drive"
	"apkdrop/internal/logging"
	"apkdrop/internal/mailer"
	"apkdrop/internal/mailtemplate"
	"apkdrop/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	uploadErr error
	linkErr   error
	failEmail string

	uploadedName string
	uploadedPath string
	grantedTo    []structures.Recipient
	linkFor      string
}

func (f *fakeStorage) Upload(_ context.Context, name, localPath string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploadedName, f.uploadedPath = name, localPath
	return "file-42", nil
}

func (f *fakeStorage) GrantRead(_ context.Context, _ string, recipients []structures.Recipient) structures.GrantReport {
	f.grantedTo = recipients
	report := structures.GrantReport{Failed: map[string]error{}}
	for _, r := range recipients {
		if r.Email == f.failEmail {
			report.Failed[r.Email] = errors.New("invalid sharing request")
			continue
		}
		report.Granted = append(report.Granted, r.Email)
	}
	return report
}

func (f *fakeStorage) PublicLink(_ context.Context, fileID string) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}
	f.linkFor = fileID
	return "https://drive.example/uc?id=" + fileID, nil
}

type fakeSender struct {
	err   error
	calls int
	last  mailer.Message
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.calls++
	f.last = msg
	return f.err
}

var testRecipients = []structures.Recipient{
	{Email: "qa@example.com", Role: "reader"},
	{Email: "pm@example.com", Role: "reader"},
}

type fixture struct {
	dir string
	req Request
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	releaseDir := filepath.Join(dir, "release")
	require.NoError(t, os.MkdirAll(releaseDir, 0755))

	write := func(path, content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write(filepath.Join(releaseDir, artifact.DescriptorFile), `[{"apkInfo":{"versionName":"2.1","outputFile":"app-release.apk"}}]`)
	write(filepath.Join(releaseDir, "app-release.apk"), "apk bytes")
	write(filepath.Join(dir, "CHANGELOG.md"), "# Changelog\n## 2.1\n- dark mode\n## 2.0\n- first\n")
	write(filepath.Join(dir, "email.txt"), "#subject\n{app_name} {app_version}\n#body\nGet it: {app_download_url}\n{change_log}\n")

	return fixture{dir: dir, req: Request{
		ReleaseDir:    releaseDir,
		AppName:       "My App",
		ChangelogPath: filepath.Join(dir, "CHANGELOG.md"),
		TemplatePath:  filepath.Join(dir, "email.txt"),
		From:          "release@example.com",
		Recipients:    testRecipients,
	}}
}

func newRunner(storage *fakeStorage, sender *fakeSender) *Runner {
	return &Runner{Storage: storage, Sender: sender, Log: logging.Discard().Logger}
}

func TestRunSuccess(t *testing.T) {
	fx := newFixture(t)
	storage, sender := &fakeStorage{}, &fakeSender{}

	res, err := newRunner(storage, sender).Run(context.Background(), fx.req)
	require.NoError(t, err)
	assert.Equal(t, ExitOK, ExitCode(err))

	assert.Equal(t, "myapp_2_1.apk", storage.uploadedName)
	assert.Equal(t, filepath.Join(fx.req.ReleaseDir, "app-release.apk"), storage.uploadedPath)
	assert.Equal(t, testRecipients, storage.grantedTo)
	assert.Equal(t, "file-42", storage.linkFor, "link must be resolved for the uploaded file")

	require.Equal(t, 1, sender.calls)
	assert.Equal(t, testRecipients, sender.last.To)
	assert.Equal(t, "release@example.com", sender.last.From)
	assert.Equal(t, "My App 2.1", sender.last.Subject)
	assert.Equal(t, "Get it: https://drive.example/uc?id=file-42\n- dark mode", sender.last.Body)

	assert.Equal(t, "2.1", res.Artifact.Version)
	assert.Equal(t, "https://drive.example/uc?id=file-42", res.DownloadURL)
}

func TestRunLogsDeliveredAddresses(t *testing.T) {
	fx := newFixture(t)
	var buf bytes.Buffer
	log, err := logging.New(&buf, "info", "")
	require.NoError(t, err)

	runner := &Runner{Storage: &fakeStorage{}, Sender: &fakeSender{}, Log: log.Logger}
	_, err = runner.Run(context.Background(), fx.req)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "to=qa@example.com,pm@example.com")
}

func TestRunToleratesPartialGrantFailure(t *testing.T) {
	fx := newFixture(t)
	storage, sender := &fakeStorage{failEmail: "pm@example.com"}, &fakeSender{}

	res, err := newRunner(storage, sender).Run(context.Background(), fx.req)
	require.NoError(t, err)
	assert.Equal(t, []string{"qa@example.com"}, res.Grants.Granted)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, testRecipients, sender.last.To, "email still goes to everyone")
}

func TestRunUploadFailure(t *testing.T) {
	fx := newFixture(t)
	storage := &fakeStorage{uploadErr: fmt.Errorf("%w: dial tcp: connection refused", drive.ErrUpload)}
	sender := &fakeSender{}

	_, err := newRunner(storage, sender).Run(context.Background(), fx.req)
	require.Error(t, err)
	assert.Equal(t, ExitUpload, ExitCode(err))
	assert.ErrorIs(t, err, drive.ErrUpload)
	assert.Zero(t, sender.calls, "notifier must not run after upload failure")
}

func TestRunLinkFailureIsUploadFailure(t *testing.T) {
	fx := newFixture(t)
	storage := &fakeStorage{linkErr: fmt.Errorf("%w: no link", drive.ErrUpload)}
	sender := &fakeSender{}

	_, err := newRunner(storage, sender).Run(context.Background(), fx.req)
	assert.Equal(t, ExitUpload, ExitCode(err))
	assert.Zero(t, sender.calls)
}

func TestRunStageFailures(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(t *testing.T, fx *fixture)
		sendErr  error
		wantCode int
		wantErr  error
		uploaded bool
	}{
		{
			name: "descriptor",
			mutate: func(t *testing.T, fx *fixture) {
				path := filepath.Join(fx.req.ReleaseDir, artifact.DescriptorFile)
				require.NoError(t, os.WriteFile(path, []byte(`[{"path":"app.apk"}]`), 0644))
			},
			wantCode: ExitParse,
			wantErr:  artifact.ErrMalformedDescriptor,
		},
		{
			name: "changelog",
			mutate: func(_ *testing.T, fx *fixture) {
				fx.req.ChangelogPath = filepath.Join(fx.dir, "missing.md")
			},
			wantCode: ExitChangelog,
			wantErr:  changelog.ErrNoChanges,
			uploaded: true,
		},
		{
			name: "template",
			mutate: func(t *testing.T, fx *fixture) {
				require.NoError(t, os.WriteFile(fx.req.TemplatePath, []byte("#subject\n{app_nam}\n"), 0644))
			},
			wantCode: ExitTemplate,
			wantErr:  mailtemplate.ErrTemplate,
			uploaded: true,
		},
		{
			name:     "notify",
			mutate:   func(*testing.T, *fixture) {},
			sendErr:  fmt.Errorf("%w: status 401", mailer.ErrNotAccepted),
			wantCode: ExitEmail,
			wantErr:  mailer.ErrNotAccepted,
			uploaded: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t)
			tc.mutate(t, &fx)
			storage, sender := &fakeStorage{}, &fakeSender{err: tc.sendErr}

			_, err := newRunner(storage, sender).Run(context.Background(), fx.req)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, ExitCode(err))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.uploaded, storage.uploadedName != "", "upload is left in place, never rolled back")
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(errors.New("bad flag")))
	assert.Equal(t, ExitParse, ExitCode(fmt.Errorf("wrapped: %w", &StageError{Stage: StageParse, Err: errors.New("x")})))
	assert.Equal(t, ExitUsage, ExitCode(&StageError{Stage: "unknown", Err: errors.New("x")}))
}
