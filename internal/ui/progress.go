package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/ytget/web-grabber/internal/model"
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ProgressReporter draws one byte progress bar per download task. When not
// rendering (output is not a terminal) it only prints a line per finished
// task.
type ProgressReporter struct {
	out    io.Writer
	render bool
	taskID string
	bar    *progressbar.ProgressBar
}

// NewProgressReporter creates a reporter writing to out
func NewProgressReporter(out io.Writer, render bool) *ProgressReporter {
	return &ProgressReporter{out: out, render: render}
}

// Update reports cumulative bytes for task; total is -1 when unknown
func (r *ProgressReporter) Update(task *model.DownloadTask, written, total int64) {
	if !r.render {
		return
	}
	if r.taskID != task.ID || r.bar == nil {
		r.closeBar(false)
		r.taskID = task.ID
		r.bar = r.newBar(describe(task), total)
	}
	_ = r.bar.Set64(written)
}

// Finish closes the bar of a task that reached a terminal state
func (r *ProgressReporter) Finish(task *model.DownloadTask) {
	if !task.Status.IsFinished() {
		return
	}
	if r.taskID == task.ID {
		r.closeBar(task.Status == model.TaskStatusCompleted)
	}
	if !r.render && task.Status == model.TaskStatusCompleted {
		fmt.Fprintf(r.out, "%s: %s\n", describe(task), FormatBytes(task.BytesWritten))
	}
}

// closeBar fills the bar only for a completed transfer; otherwise it stops
// at the bytes actually written
func (r *ProgressReporter) closeBar(completed bool) {
	if r.bar != nil {
		if completed {
			_ = r.bar.Finish()
		} else {
			_ = r.bar.Exit()
		}
	}
	r.bar = nil
	r.taskID = ""
}

func (r *ProgressReporter) newBar(description string, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(ProgressBarWidth),
		progressbar.OptionThrottle(ProgressThrottle),
		progressbar.OptionSpinnerType(ProgressSpinnerType),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(r.out)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// describe returns a bar label of bounded width
func describe(task *model.DownloadTask) string {
	title := []rune(task.GetDisplayTitle())
	if len(title) > MaxDescriptionLen {
		return string(title[:MaxDescriptionLen-len(EllipsisSuffix)]) + EllipsisSuffix
	}
	return string(title)
}

// FormatBytes renders n with a binary unit suffix
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
