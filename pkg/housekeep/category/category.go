// Package category maps file extensions to the folder a file is sorted into.
package category

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Category is the label a file is organized under.
type Category int

// Categories in the order they are reported.
const (
	Images Category = iota
	Documents
	Videos
	Audio
	Archives
	Code
	Executables
	Books
	Other
)

var names = [...]string{
	Images:      "Images",
	Documents:   "Documents",
	Videos:      "Videos",
	Audio:       "Audio",
	Archives:    "Archives",
	Code:        "Code",
	Executables: "Executables",
	Books:       "Books",
	Other:       "Other",
}

// Extensions lists the lower-case extensions belonging to each category.
// Other has no entry; it catches everything unlisted.
var Extensions = map[Category][]string{
	Images:      {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".ico", ".webp", ".heic", ".tiff"},
	Documents:   {".pdf", ".doc", ".docx", ".txt", ".xlsx", ".xls", ".pptx", ".ppt", ".odt", ".ods", ".csv", ".rtf", ".md"},
	Videos:      {".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm", ".m4v"},
	Audio:       {".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg", ".wma", ".opus"},
	Archives:    {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".tgz", ".zst"},
	Code:        {".py", ".js", ".ts", ".go", ".rs", ".html", ".css", ".java", ".cpp", ".c", ".h", ".sh", ".json", ".xml", ".yaml", ".yml"},
	Executables: {".exe", ".msi", ".deb", ".rpm", ".appimage", ".dmg", ".pkg", ".apk"},
	Books:       {".epub", ".mobi", ".azw", ".azw3"},
}

var byExtension = func() map[string]Category {
	m := make(map[string]Category)
	for c, exts := range Extensions {
		for _, ext := range exts {
			m[ext] = c
		}
	}
	return m
}()

// ErrUnknownCategory is returned by Parse for an unrecognized name.
var ErrUnknownCategory = errors.New("unknown category")

// All returns every category in report order.
func All() []Category {
	out := make([]Category, 0, len(names))
	for c := range names {
		out = append(out, Category(c))
	}
	return out
}

// String returns the category's folder name.
func (c Category) String() string {
	if c < 0 || int(c) >= len(names) {
		return names[Other]
	}
	return names[c]
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse returns the category with the given name, ignoring case.
func Parse(name string) (Category, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Category(i), nil
		}
	}
	return Other, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ForExtension returns the category of an extension such as ".JPG".
// The leading dot is optional.
func ForExtension(ext string) Category {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if c, ok := byExtension[ext]; ok {
		return c
	}
	return Other
}

// Of returns the category of a file name.
func Of(name string) Category {
	return ForExtension(filepath.Ext(name))
}
