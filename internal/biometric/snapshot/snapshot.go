// Package snapshot persists the optional capture image sent alongside an
// enrollment. Snapshots are best-effort context for auditors; they are not
// used for matching.
package snapshot

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"
)

// Saver stores one decoded snapshot image and returns a reference (path or
// URI) recorded on the enrollment.
type Saver interface {
	Save(ctx context.Context, userID, ext string, image []byte) (string, error)
}

// dataURLRe matches the browser capture format: data:image/png;base64,... or
// data:image/jpeg;base64,...
var dataURLRe = regexp.MustCompile(`(?i)^data:image/(png|jpeg);base64,(.+)$`)

// ParseDataURL decodes a snapshot data URL into raw image bytes and a file
// extension. A missing or malformed data URL is not an error: enrollment
// proceeds without a snapshot, matching the capture clients' behavior of
// omitting the field.
func ParseDataURL(dataURL string) (image []byte, ext string, ok bool) {
	m := dataURLRe.FindStringSubmatch(dataURL)
	if m == nil {
		return nil, "", false
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, "", false
	}
	ext = "jpg"
	if strings.EqualFold(m[1], "png") {
		ext = "png"
	}
	return raw, ext, true
}
