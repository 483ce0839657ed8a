// Package media turns stored media references into fetchable URLs.
//
// Catalog records carry a mix of absolute URLs, CDN-relative Cloudinary
// paths, and server-relative upload paths. Formatting is total and
// idempotent: any input yields a string, and formatting an already-formatted
// URL returns it unchanged.
package media

import (
	"fmt"
	"strings"
)

// cloudinaryPrefix marks paths stored as CDN-relative Cloudinary public ids.
const cloudinaryPrefix = "MusicPlayerPRO"

// Formatter resolves stored media references against a server base URL and a
// Cloudinary cloud name.
type Formatter struct {
	BaseURL   string // API server base, e.g. https://api.example.com
	CloudName string // Cloudinary cloud for CDN-relative paths
}

// Audio returns a directly fetchable URL for an audio reference.
func (f Formatter) Audio(ref string) string {
	if ref == "" {
		return ""
	}
	if isAbsolute(ref) {
		return ref
	}
	if strings.HasPrefix(ref, cloudinaryPrefix) {
		return fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/%s", f.CloudName, ref)
	}
	return f.joinBase(ref)
}

// Image returns a fetchable URL for a cover reference. For Cloudinary paths
// a width/quality transform is applied; width <= 0 skips the transform.
func (f Formatter) Image(ref string, width int) string {
	if ref == "" {
		return ""
	}
	if isAbsolute(ref) {
		return ref
	}
	if strings.HasPrefix(ref, cloudinaryPrefix) {
		if width > 0 {
			return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/w_%d,q_auto/%s", f.CloudName, width, ref)
		}
		return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", f.CloudName, ref)
	}
	return f.joinBase(ref)
}

func (f Formatter) joinBase(ref string) string {
	base := strings.TrimRight(f.BaseURL, "/")
	if strings.HasPrefix(ref, "/") {
		return base + ref
	}
	return base + "/" + ref
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
