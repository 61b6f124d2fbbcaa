package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader - объектное хранилище для файлов доказательств.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// ScreenshotKey строит ключ объекта: matches/{match}/teams/{team}/{uuid}{ext}.
func ScreenshotKey(matchID, teamID int, ext string) string {
	return fmt.Sprintf("matches/%d/teams/%d/%s%s", matchID, teamID, uuid.NewString(), ext)
}
