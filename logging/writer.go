package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// levelWriter writes <Director>/<date>/<level>.log and rolls to a new
// lumberjack file when the date changes.
type levelWriter struct {
	config  Config
	level   string
	mu      sync.Mutex
	date    string
	current *lumberjack.Logger
	now     func() time.Time
}

func newLevelWriter(config Config, level string) *levelWriter {
	return &levelWriter{config: config, level: level, now: time.Now}
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := w.now().Format("2006-01-02")
	if w.current == nil || date != w.date {
		if w.current != nil {
			_ = w.current.Close()
		}
		w.current = w.open(date)
		w.date = date
	}
	return w.current.Write(p)
}

func (w *levelWriter) open(date string) *lumberjack.Logger {
	dirPath := filepath.Join(w.config.Director, date)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		dirPath = w.config.Director
		_ = os.MkdirAll(dirPath, 0o755)
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dirPath, w.level+".log"),
		MaxSize:    w.config.MaxSize,
		MaxBackups: w.config.MaxBackups,
		MaxAge:     w.config.MaxAge,
		Compress:   w.config.Compress,
		LocalTime:  true,
	}
}

func (w *levelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}
