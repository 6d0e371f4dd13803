package applog

import (
	"errors"
	"fmt"
	"os"
)

// ErrNotFound signals that the log file does not exist. Callers must be able
// to distinguish a missing file from a generic I/O failure.
var ErrNotFound = errors.New("log file not found")

// Reader reads raw log file content with basic guard rails.
type Reader struct {
	maxSizeMB int
}

// NewReader creates a log file reader. maxSizeMB bounds the accepted file
// size; a non-positive value disables the check.
func NewReader(maxSizeMB int) *Reader {
	return &Reader{maxSizeMB: maxSizeMB}
}

// Read returns the full content of the log file at path. A missing file is
// reported as ErrNotFound; any other failure is a generic read error.
func (r *Reader) Read(path string) (string, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("failed to stat log file: %w", err)
	}

	if r.maxSizeMB > 0 {
		maxBytes := int64(r.maxSizeMB) * 1024 * 1024
		if fileInfo.Size() > maxBytes {
			return "", fmt.Errorf("log file exceeds maximum size of %dMB (size: %.2fMB)",
				r.maxSizeMB, float64(fileInfo.Size())/1024/1024)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read log file: %w", err)
	}

	return string(content), nil
}

// GetSourceInfo returns metadata about the log file.
func (r *Reader) GetSourceInfo(path string) (map[string]interface{}, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"size_bytes": fileInfo.Size(),
		"size_mb":    float64(fileInfo.Size()) / 1024 / 1024,
		"modified":   fileInfo.ModTime(),
	}, nil
}
