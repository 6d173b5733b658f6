package platform

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/ytget/web-grabber/internal/model"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// File manager names
var (
	LinuxFileManagers = []string{"nautilus", "dolphin", "thunar", "nemo", "pcmanfm"}
)

// Per-category subdirectories under the download root
var CategorySubdirs = map[model.Category]string{
	model.CategoryVideo:    "videos",
	model.CategoryAudio:    "audio",
	model.CategoryImage:    "images",
	model.CategoryDocument: "documents",
	model.CategoryOther:    "other",
}

// ErrNoFilename is returned when a URL path has no usable basename
var ErrNoFilename = errors.New("could not determine filename")

// Characters that are illegal in filenames on common filesystems
const forbiddenFilenameChars = `<>:"/\|?*`

var filenameReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, len(forbiddenFilenameChars)*2)
	for _, r := range forbiddenFilenameChars {
		pairs = append(pairs, string(r), "_")
	}
	return strings.NewReplacer(pairs...)
}()

// CategoryDirs maps categories to fixed destination directories under Root
type CategoryDirs struct {
	Root string
}

// NewCategoryDirs creates the destination layout rooted at root
func NewCategoryDirs(root string) CategoryDirs {
	return CategoryDirs{Root: root}
}

// For returns the destination directory of category, falling back to other
func (d CategoryDirs) For(category model.Category) string {
	sub, ok := CategorySubdirs[category]
	if !ok {
		sub = CategorySubdirs[model.CategoryOther]
	}
	return filepath.Join(d.Root, sub)
}

// All returns every destination directory in category table order
func (d CategoryDirs) All() []string {
	dirs := make([]string, 0, len(CategorySubdirs))
	for _, c := range model.Categories() {
		dirs = append(dirs, d.For(c))
	}
	return dirs
}

// Ensure creates every destination directory; safe to call repeatedly
func (d CategoryDirs) Ensure() error {
	for _, dir := range d.All() {
		if err := CreateDirectoryIfNotExists(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// SanitizeFilename replaces every character from < > : " / \ | ? * with an underscore
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// FilenameFromURL returns the percent-decoded, sanitized basename of the URL path
func FilenameFromURL(rawURL string) (string, error) {
	// The escaped path keeps %2F inside a segment from splitting it
	escaped := escapedPath(rawURL)
	if escaped == "" || strings.HasSuffix(escaped, "/") {
		return "", ErrNoFilename
	}
	base := path.Base(escaped)
	if base == "." || base == "/" {
		return "", ErrNoFilename
	}

	name := SanitizeFilename(model.PercentDecode(base))
	if name == "" {
		return "", ErrNoFilename
	}
	return name, nil
}

// escapedPath returns the still-escaped path of rawURL. URLs that net/url
// rejects, such as ones with a malformed escape, are cut by hand.
func escapedPath(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.EscapedPath()
	}

	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
		j := strings.Index(s, "/")
		if j < 0 {
			return ""
		}
		s = s[j:]
	}
	return s
}

// FreeSpace returns the number of bytes available to the current user on the
// filesystem holding dir
func FreeSpace(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to stat filesystem of %s: %w", dir, err)
	}
	return usage.Free, nil
}

// ExpandHome replaces a leading "~" in dir with the user's home directory
func ExpandHome(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}

// OpenDirectoryInManager opens dir in the system file manager
func OpenDirectoryInManager(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("directory does not exist: %v", err)
	}

	switch runtime.GOOS {
	case OSDarwin:
		return exec.Command(OpenCommand, absPath).Run()
	case OSWindows:
		return exec.Command(ExplorerCommand, absPath).Run()
	case OSLinux:
		return openDirectoryLinux(absPath)
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// openDirectoryLinux tries xdg-open first, then the common file managers
func openDirectoryLinux(dir string) error {
	cmd := exec.Command(XDGOpenCommand, dir)
	if err := cmd.Run(); err == nil {
		return nil
	}

	for _, fm := range LinuxFileManagers {
		if _, err := exec.LookPath(fm); err == nil {
			return exec.Command(fm, dir).Run()
		}
	}

	return fmt.Errorf("no suitable file manager found")
}
