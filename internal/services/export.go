package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/todoapp/apiserver/internal/logging"
	"github.com/todoapp/apiserver/internal/storage"
	"github.com/todoapp/apiserver/types"
)

const (
	exportContentType = "application/json"
	exportLinkTTL     = 15 * time.Minute
)

// ObjectStore is the subset of object storage used for task exports.
type ObjectStore interface {
	Put(ctx context.Context, obj storage.Object) error
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
}

// ExportService snapshots a user's tasks into object storage.
type ExportService struct {
	tasks   *TaskService
	objects ObjectStore
	logger  logging.Logger
	now     func() time.Time
}

func NewExportService(tasks *TaskService, objects ObjectStore, logger logging.Logger) *ExportService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ExportService{
		tasks:   tasks,
		objects: objects,
		logger:  logger,
		now:     time.Now,
	}
}

// ExportKey is the object key of an export taken at t.
func ExportKey(ownerID string, t time.Time) string {
	return fmt.Sprintf("exports/%s/%d.json", ownerID, t.UnixNano())
}

// Export writes every task of ownerID as one JSON document and returns
// where it was stored, with a download link when one can be signed.
func (s *ExportService) Export(ctx context.Context, ownerID string) (types.ExportResult, error) {
	tasks, err := s.tasks.ListAll(ctx, ownerID)
	if err != nil {
		return types.ExportResult{}, err
	}

	exportedAt := s.now().UTC()
	data, err := json.Marshal(types.TaskExport{
		UserID:     ownerID,
		ExportedAt: exportedAt,
		Tasks:      tasks,
	})
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := ExportKey(ownerID, exportedAt)
	err = s.objects.Put(ctx, storage.Object{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: exportContentType,
		Metadata: map[string]string{
			"user-id":    ownerID,
			"task-count": strconv.Itoa(len(tasks)),
		},
	})
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("store export: %w", err)
	}

	result := types.ExportResult{
		Bucket: s.objects.Bucket(),
		Key:    key,
		Count:  len(tasks),
	}

	link, err := s.objects.DownloadURL(ctx, key, exportLinkTTL)
	if err != nil {
		s.logger.Warn(ctx, "sign export link failed", "key", key, "error", err)
		return result, nil
	}
	expiresAt := exportedAt.Add(exportLinkTTL)
	result.URL = link
	result.ExpiresAt = &expiresAt
	return result, nil
}
