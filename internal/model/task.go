package model

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// FileLink is a downloadable resource discovered on a scraped page
type FileLink struct {
	URL      string
	Category Category
}

// NewFileLink classifies rawURL and returns the link
func NewFileLink(rawURL string) FileLink {
	return FileLink{URL: rawURL, Category: Classify(rawURL)}
}

// DisplayURL returns the percent-decoded URL, or the raw URL if it cannot be decoded
func (l FileLink) DisplayURL() string {
	return DecodeForDisplay(l.URL)
}

// DecodeForDisplay percent-decodes s for log and prompt output
func DecodeForDisplay(s string) string {
	return PercentDecode(s)
}

// PercentDecode decodes every well-formed %XX escape in s and keeps
// malformed ones as written, so "My%20File%zz" becomes "My File%zz". Byte
// sequences that do not form UTF-8 are replaced with U+FFFD.
func PercentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// DownloadTask is the outcome record of a single file download
type DownloadTask struct {
	ID           string
	Link         FileLink
	Status       TaskStatus
	OutputPath   string    // path of the written file
	BytesWritten int64     // bytes copied to disk so far
	TotalBytes   int64     // Content-Length, -1 if unknown
	LastError    string    // last error message if any
	Overwrote    bool      // an existing file was replaced
	StartedAt    time.Time // when download started
	FinishedAt   time.Time // when download finished
}

// NewDownloadTask creates a pending task for link
func NewDownloadTask(id string, link FileLink) *DownloadTask {
	return &DownloadTask{
		ID:         id,
		Link:       link,
		Status:     TaskStatusPending,
		TotalBytes: -1,
	}
}

// Progress returns completion in the 0.0 to 1.0 range; 0 when the total is unknown
func (dt *DownloadTask) Progress() float64 {
	if dt.TotalBytes <= 0 {
		if dt.Status == TaskStatusCompleted {
			return 1
		}
		return 0
	}
	p := float64(dt.BytesWritten) / float64(dt.TotalBytes)
	if p > 1 {
		return 1
	}
	return p
}

// Duration returns how long the transfer took, or zero if it never finished
func (dt *DownloadTask) Duration() time.Duration {
	if dt.StartedAt.IsZero() || dt.FinishedAt.IsZero() {
		return 0
	}
	return dt.FinishedAt.Sub(dt.StartedAt)
}

// GetDisplayTitle returns the output filename, URL basename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.OutputPath != "" {
		// Support both / and \ separators
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			return parts[len(parts)-1]
		}
	}

	if u, err := url.Parse(dt.Link.URL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return DecodeForDisplay(base)
		}
	}

	return dt.Link.DisplayURL()
}
