package download

import (
	"context"

	"github.com/ytget/web-grabber/internal/model"
)

// ProgressFunc receives cumulative bytes written and the expected total
// (-1 when the server sent no Content-Length)
type ProgressFunc func(task *model.DownloadTask, written, total int64)

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	SetProgressCallback(ProgressFunc)
	NewBatch(sourceURL string, links []model.FileLink) *model.Batch
	Download(ctx context.Context, link model.FileLink) *model.DownloadTask
	DownloadBatch(ctx context.Context, batch *model.Batch) model.BatchSummary
}
