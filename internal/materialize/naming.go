package materialize

import (
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultPrefix and DefaultSuffix frame the fallback name
	// pdf_<epoch-millis>.pdf.
	DefaultPrefix = "pdf_"
	DefaultSuffix = ".pdf"
)

// fileName picks the destination name: the display name reduced to its
// last path element, or the timestamped fallback.
func fileName(display string, ok bool, prefix, suffix string, now time.Time) string {
	if ok {
		if name := baseName(display); name != "" {
			return name
		}
	}
	return FallbackName(prefix, suffix, now)
}

// FallbackName returns prefix + milliseconds since the Unix epoch + suffix.
func FallbackName(prefix, suffix string, now time.Time) string {
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}

func baseName(display string) string {
	if display == "" {
		return ""
	}
	name := filepath.Base(display)
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}
