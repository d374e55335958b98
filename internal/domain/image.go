package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// IsAbsoluteURL accepts only http(s) URLs with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ImageFileName composes the on-disk name for an article's cover image.
// The ordinal and session label keep concurrent sessions from colliding.
func ImageFileName(ref ArticleRef, label, imageURL string) string {
	base := "image"
	if u, err := url.Parse(imageURL); err == nil {
		if b := path.Base(u.Path); b != "." && b != "/" {
			base = b
		}
	}
	if !strings.Contains(base, ".") {
		base += ".jpg"
	}
	return fmt.Sprintf("article_%d_%s_%s", ref.Ordinal, sanitizeLabel(label), base)
}

func sanitizeLabel(label string) string {
	return strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(label)
}
