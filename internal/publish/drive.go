package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/heimdex/heimdex-editor/internal/export"
)

// DrivePluginName is the catalog plugin name for Google Drive uploads.
const DrivePluginName = "gdrive"

// DriveService is the part of the Drive API the plugin needs; tests mock it.
type DriveService interface {
	UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error)
}

// GoogleDriveService uploads through the Google Drive API.
type GoogleDriveService struct {
	service *drive.Service
}

// NewGoogleDriveService authenticates with a service account key file.
func NewGoogleDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &GoogleDriveService{service: srv}, nil
}

func (s *GoogleDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := &drive.File{Name: fileName, MimeType: mimeType}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	return s.service.Files.Create(meta).
		Media(f).
		Fields("id, name, webViewLink").
		Context(ctx).
		Do()
}

// Drive uploads renders to a Drive folder.
type Drive struct {
	service  DriveService
	folderID string
	logger   *slog.Logger
}

func NewDrive(service DriveService, folderID string, logger *slog.Logger) *Drive {
	return &Drive{service: service, folderID: folderID, logger: logger}
}

func (d *Drive) Publish(ctx context.Context, path string, job export.Job) (string, error) {
	name := filepath.Base(path)
	file, err := d.service.UploadFile(ctx, name, MimeType(job.Format), d.folderID, path)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if d.logger != nil {
		d.logger.Info("uploaded to drive", "file_id", file.Id, "name", name)
	}
	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}
	return "https://drive.google.com/file/d/" + file.Id + "/view", nil
}

// MimeType is the content type uploaded for an export format.
func MimeType(format string) string {
	switch strings.ToLower(format) {
	case "gif":
		return "image/gif"
	case "apng":
		return "image/apng"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
