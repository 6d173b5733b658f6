package model

import (
	"net/url"
	"path"
	"strings"
)

// Category is the kind of digital file a link points to
type Category string

const (
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryImage    Category = "image"
	CategoryDocument Category = "document"
	CategoryOther    Category = "other"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Categories returns every category in table order
func Categories() []Category {
	return []Category{CategoryVideo, CategoryAudio, CategoryImage, CategoryDocument, CategoryOther}
}

// ParseCategory maps a name to a Category, falling back to CategoryOther
func ParseCategory(name string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Categories() {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// ExtensionEntry binds a category to the extensions recognized for it.
// Extensions are lowercase and carry the leading dot.
type ExtensionEntry struct {
	Category   Category
	Extensions []string
}

// ExtensionTable is an ordered extension→category mapping. Lookups walk the
// entries front to back, so an extension listed under two categories
// resolves to the earlier one.
type ExtensionTable []ExtensionEntry

// DefaultExtensionTable is searched in the order video, audio, image,
// document, other.
var DefaultExtensionTable = ExtensionTable{
	{Category: CategoryVideo, Extensions: []string{".mkv", ".mp4", ".avi", ".mov", ".wmv", ".flv"}},
	{Category: CategoryAudio, Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg"}},
	{Category: CategoryImage, Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff"}},
	{Category: CategoryDocument, Extensions: []string{".pdf", ".docx", ".txt", ".doc"}},
	{Category: CategoryOther, Extensions: nil},
}

// Supported reports whether ext is listed under any category
func (t ExtensionTable) Supported(ext string) bool {
	ext = strings.ToLower(ext)
	if ext == "" {
		return false
	}
	for _, entry := range t {
		for _, e := range entry.Extensions {
			if e == ext {
				return true
			}
		}
	}
	return false
}

// CategoryOf returns the first category whose list contains ext, or
// CategoryOther when none does
func (t ExtensionTable) CategoryOf(ext string) Category {
	ext = strings.ToLower(ext)
	if ext == "" {
		return CategoryOther
	}
	for _, entry := range t {
		for _, e := range entry.Extensions {
			if e == ext {
				return entry.Category
			}
		}
	}
	return CategoryOther
}

// PathExtension returns the lowercase extension of the URL's path component.
// Query strings and fragments never contribute. Unparseable input yields "".
func PathExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

// Classify maps a URL to its category using DefaultExtensionTable
func Classify(rawURL string) Category {
	return DefaultExtensionTable.CategoryOf(PathExtension(rawURL))
}
