package log

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotateFileWriter rotates by hour.
type RotateFileWriter struct {
	mu       sync.Mutex
	file     *os.File
	currHour int64
	hours    int
	dir      string
	name     string
	now      func() time.Time
}

// NewRotateFileWriter create a rotate file writer, files older than hours
// are removed when hours > 0.
func NewRotateFileWriter(dir string, name string, hours int) *RotateFileWriter {
	if dir == "" {
		dir = "."
	}

	return &RotateFileWriter{
		hours: hours,
		dir:   dir,
		name:  name,
		now:   time.Now,
	}
}

// Write writes data
func (w *RotateFileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateByHour(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Close closes the current file.
func (w *RotateFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

const rotateTimeLayout = "2006010215"

func (w *RotateFileWriter) filename(t time.Time) string {
	return filepath.Join(w.dir, w.name+"."+t.Format(rotateTimeLayout))
}

func (w *RotateFileWriter) rotateByHour() error {
	now := w.now().Local()
	currHour := now.Unix() / 3600
	if currHour == w.currHour && w.file != nil {
		return nil
	}

	flag := os.O_CREATE | os.O_RDWR | os.O_APPEND
	perm := os.FileMode(0644) // -rw-r--r--
	file, err := os.OpenFile(w.filename(now), flag, perm)
	if err != nil {
		log.Println("open file failed:", err)
		return err
	}
	if w.file != nil {
		w.file.Close()
	}
	w.file = file
	w.currHour = currHour
	if w.hours > 0 {
		go w.clearExpiredFiles(now)
	}
	return nil
}

func (w *RotateFileWriter) clearExpiredFiles(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	oldest := now.Add(time.Duration(w.hours) * -time.Hour)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, w.name+".") {
			continue
		}
		suffix := name[len(w.name)+1:]
		t, err := time.ParseInLocation(rotateTimeLayout, suffix, time.Local)
		if err != nil {
			continue
		}
		if t.Before(oldest) {
			os.Remove(filepath.Join(w.dir, name))
		}
	}
}
