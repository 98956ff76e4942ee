package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File appends codes to a local file. Meant for development and tests.
type File struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("notify: file path is required")
	}
	return &File{path: filepath.Clean(path), now: time.Now}, nil
}

// Deliver appends one "2006-01-02 15:04:05 - OTP: <code>" line. The recipient
// is not written.
func (f *File) Deliver(_ context.Context, _ string, code string) error {
	line := fmt.Sprintf("%s - OTP: %s\n", f.now().Format(time.DateTime), code)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(line); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}
