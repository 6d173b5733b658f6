package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ytget/web-grabber/internal/model"
	"github.com/ytget/web-grabber/internal/platform"
)

// Transfer defaults
const (
	DefaultTimeout   = 10 * time.Second
	DefaultChunkSize = 8 * 1024
	TaskIDPrefix     = "task-"
	BatchIDPrefix    = "batch-"
)

var (
	errStalled   = errors.New("no data received before timeout")
	errCancelled = errors.New("batch cancelled")
)

// Service handles download operations
type Service struct {
	client     *http.Client
	dirs       platform.CategoryDirs
	logger     zerolog.Logger
	timeout    time.Duration
	chunkSize  int
	userAgent  string
	onUpdate   func(*model.DownloadTask) // callback for status changes
	onProgress ProgressFunc              // callback for byte progress
}

// Option configures a Service
type Option func(*Service)

// WithTimeout bounds the wait for response headers and for each chunk
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithChunkSize sets the size of each body read
func WithChunkSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each download
func WithUserAgent(ua string) Option {
	return func(s *Service) {
		s.userAgent = ua
	}
}

// NewService creates a new download service writing into dirs
func NewService(client *http.Client, dirs platform.CategoryDirs, logger zerolog.Logger, opts ...Option) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Service{
		client:    client,
		dirs:      dirs,
		logger:    logger,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		userAgent: platform.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetUpdateCallback sets the callback function for task status changes
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// SetProgressCallback sets the callback function for byte progress
func (s *Service) SetProgressCallback(callback ProgressFunc) {
	s.onProgress = callback
}

// NewBatch wraps links into pending tasks
func (s *Service) NewBatch(sourceURL string, links []model.FileLink) *model.Batch {
	batch := model.NewBatch(BatchIDPrefix+uuid.NewString(), sourceURL)
	for _, link := range links {
		batch.AddTask(model.NewDownloadTask(generateTaskID(), link))
	}
	return batch
}

// Download fetches a single link. The returned task always describes the
// outcome; failures are recorded on it rather than returned.
func (s *Service) Download(ctx context.Context, link model.FileLink) *model.DownloadTask {
	task := model.NewDownloadTask(generateTaskID(), link)
	s.runTask(ctx, task)
	return task
}

// DownloadBatch downloads every pending task in order. A failed task never
// stops the ones after it; cancelling ctx marks the remainder skipped.
func (s *Service) DownloadBatch(ctx context.Context, batch *model.Batch) model.BatchSummary {
	for _, task := range batch.Pending() {
		if ctx.Err() != nil {
			s.finish(task, model.TaskStatusSkipped, errCancelled)
			continue
		}
		s.runTask(ctx, task)
	}

	summary := batch.Summary()
	s.logger.Info().
		Str("batch", batch.ID).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int64("bytes", summary.Bytes).
		Msg("Batch finished")
	return summary
}

// runTask downloads task.Link into its category directory
func (s *Service) runTask(ctx context.Context, task *model.DownloadTask) {
	link := task.Link
	displayURL := link.DisplayURL()

	name, err := platform.FilenameFromURL(link.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", displayURL).Msg("Could not determine filename")
		s.finish(task, model.TaskStatusSkipped, err)
		return
	}

	dir := s.dirs.For(link.Category)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		s.fail(task, fmt.Errorf("failed to create %s: %w", dir, err))
		return
	}
	outPath := filepath.Join(dir, name)
	task.OutputPath = outPath

	// The watchdog cancels the request when headers or the next chunk take
	// longer than the timeout.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var stalled atomic.Bool
	watchdog := time.AfterFunc(s.timeout, func() {
		stalled.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		s.fail(task, fmt.Errorf("failed to build request: %w", err))
		return
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.fail(task, stallError(err, &stalled))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.fail(task, fmt.Errorf("bad status: %s", resp.Status))
		return
	}
	watchdog.Reset(s.timeout)

	task.TotalBytes = resp.ContentLength
	if _, err := os.Stat(outPath); err == nil {
		task.Overwrote = true
		s.logger.Warn().Str("path", outPath).Msg("Overwriting existing file")
	}

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, platform.DefaultFilePermissions)
	if err != nil {
		s.fail(task, fmt.Errorf("failed to create %s: %w", outPath, err))
		return
	}

	task.Status = model.TaskStatusDownloading
	task.StartedAt = time.Now()
	s.notifyUpdate(task)
	s.logger.Info().Str("url", displayURL).Str("path", outPath).Msg("Starting download")
	s.notifyProgress(task)

	err = s.copyChunks(out, resp.Body, func(n int) {
		watchdog.Reset(s.timeout)
		task.BytesWritten += int64(n)
		s.notifyProgress(task)
	})
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(outPath)
		s.fail(task, stallError(err, &stalled))
		return
	}

	s.finish(task, model.TaskStatusCompleted, nil)
	s.logger.Info().
		Str("url", displayURL).
		Str("path", outPath).
		Int64("bytes", task.BytesWritten).
		Dur("took", task.Duration()).
		Msg("Downloaded")
}

// copyChunks copies src to dst in chunkSize reads, calling onChunk after
// every successful write
func (s *Service) copyChunks(dst io.Writer, src io.Reader, onChunk func(n int)) error {
	buf := make([]byte, s.chunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write failed: %w", err)
			}
			onChunk(n)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// fail records err on task and logs it with the decoded URL
func (s *Service) fail(task *model.DownloadTask, err error) {
	s.logger.Error().Err(err).Str("url", task.Link.DisplayURL()).Msg("Error downloading")
	s.finish(task, model.TaskStatusError, err)
}

// finish moves task into a terminal state
func (s *Service) finish(task *model.DownloadTask, status model.TaskStatus, err error) {
	task.Status = status
	if err != nil {
		task.LastError = err.Error()
	}
	task.FinishedAt = time.Now()
	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// notifyProgress calls the progress callback if set
func (s *Service) notifyProgress(task *model.DownloadTask) {
	if s.onProgress != nil {
		s.onProgress(task, task.BytesWritten, task.TotalBytes)
	}
}

// stallError replaces a cancellation caused by the watchdog with errStalled
func stallError(err error, stalled *atomic.Bool) error {
	if stalled.Load() {
		return fmt.Errorf("%w: %v", errStalled, err)
	}
	return err
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return TaskIDPrefix + uuid.NewString()
}
