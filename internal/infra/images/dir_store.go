package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore writes each submission to {dir}/{questID}_{userID}.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Save(_ context.Context, questID, userID string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(s.dir, objectName(questID, userID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// Load reads back a stored submission.
func (s *DirStore) Load(_ context.Context, questID, userID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, objectName(questID, userID)))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// objectName flattens path separators so ids cannot escape the target directory.
func objectName(questID, userID string) string {
	return filepath.Base(filepath.Clean("/"+questID)) + "_" + filepath.Base(filepath.Clean("/"+userID))
}
