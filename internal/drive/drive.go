package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"apkdrop/internal/structures"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// APKContentType is the MIME type uploaded artifacts are stored with.
const APKContentType = "application/vnd.android.package-archive"

// RunIDProperty is the appProperties key that links a file to the run that uploaded it.
const RunIDProperty = "apkdrop_run"

// ErrUpload covers every failure of the upload stage: upload, or link lookup.
var ErrUpload = errors.New("drive upload failed")

type Service struct {
	srv   *drive.Service
	log   *slog.Logger
	runID string
}

func NewService(ctx context.Context, credentialsPath string, log *slog.Logger) (*Service, error) {
	if !filepath.IsAbs(credentialsPath) {
		return nil, fmt.Errorf("google credentials must be an absolute path: %s", credentialsPath)
	}
	return newService(ctx, log, option.WithCredentialsFile(credentialsPath), option.WithScopes(drive.DriveScope))
}

func newService(ctx context.Context, log *slog.Logger, opts ...option.ClientOption) (*Service, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Service{srv: srv, log: log}, nil
}

// SetRunID tags files uploaded afterwards with the given run id.
func (s *Service) SetRunID(id string) {
	s.runID = id
}

// Upload stores the local file under name and returns the new file id.
func (s *Service) Upload(ctx context.Context, name, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name}
	if s.runID != "" {
		meta.AppProperties = map[string]string{RunIDProperty: s.runID}
	}

	file, err := s.srv.Files.Create(meta).
		Media(f, googleapi.ContentType(APKContentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if file.Id == "" {
		return "", fmt.Errorf("%w: no file id in response", ErrUpload)
	}
	s.log.Info("uploaded artifact", "file_id", file.Id, "name", name)
	return file.Id, nil
}

// GrantRead gives every recipient read access to the file, one permission
// request each. "commenter" is honoured; any other role is downgraded to
// "reader". A failing recipient is logged and recorded in the report; it
// does not stop the others.
func (s *Service) GrantRead(ctx context.Context, fileID string, recipients []structures.Recipient) structures.GrantReport {
	report := structures.GrantReport{Failed: map[string]error{}}
	for _, r := range recipients {
		role := readRole(r.Role)
		perm, err := s.srv.Permissions.Create(fileID, &drive.Permission{
			Type:         "user",
			Role:         role,
			EmailAddress: r.Email,
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			s.log.Warn("permission not granted", "file_id", fileID, "email", r.Email, "status", statusOf(err), "err", err)
			report.Failed[r.Email] = err
			continue
		}
		s.log.Debug("permission granted", "file_id", fileID, "email", r.Email, "permission_id", perm.Id)
		report.Granted = append(report.Granted, r.Email)
	}
	return report
}

// PublicLink looks the file up by id and returns its download link,
// falling back to the web view link when Drive reports no direct download.
func (s *Service) PublicLink(ctx context.Context, fileID string) (string, error) {
	file, err := s.srv.Files.Get(fileID).
		Fields("id, name, webContentLink, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", ErrUpload, fileID, err)
	}
	if file.WebContentLink != "" {
		return file.WebContentLink, nil
	}
	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	return "", fmt.Errorf("%w: file %s has no shareable link", ErrUpload, fileID)
}

// List returns up to limit files, newest first.
func (s *Service) List(ctx context.Context, limit int64) ([]*drive.File, error) {
	resp, err := s.srv.Files.List().
		PageSize(limit).
		OrderBy("createdTime desc").
		Fields("files(id, name, webContentLink, webViewLink, createdTime, appProperties)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// Delete permanently removes each file. Failures are logged and skipped;
// the number of deleted files is returned.
func (s *Service) Delete(ctx context.Context, fileIDs ...string) int {
	deleted := 0
	for _, id := range fileIDs {
		if err := s.srv.Files.Delete(id).Context(ctx).Do(); err != nil {
			s.log.Warn("delete failed", "file_id", id, "status", statusOf(err), "err", err)
			continue
		}
		s.log.Info("deleted file", "file_id", id)
		deleted++
	}
	return deleted
}

func readRole(role string) string {
	if role == "commenter" {
		return role
	}
	return "reader"
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
