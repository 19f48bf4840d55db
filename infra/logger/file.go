package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes a size-rotated log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	fileMu  sync.RWMutex
	fileOut io.Writer
)

// SetFile copies the output of every logger created afterwards to a rotating
// JSON lines file. An empty path stops the copy. The returned closer
// releases the file.
func SetFile(cfg FileConfig) (io.Closer, error) {
	fileMu.Lock()
	defer fileMu.Unlock()
	if cfg.Path == "" {
		fileOut = nil
		return io.NopCloser(nil), nil
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	fileOut = lj
	return lj, nil
}

func fileWriter() io.Writer {
	fileMu.RLock()
	defer fileMu.RUnlock()
	return fileOut
}
