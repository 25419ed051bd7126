package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Dir writes snapshots to a local upload directory, one file per user,
// overwritten on re-enrollment.
type Dir struct {
	root string
}

// NewDir creates the upload directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Save(_ context.Context, userID, ext string, image []byte) (string, error) {
	path := filepath.Join(d.root, fmt.Sprintf("%s.%s", userID, ext))
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
