package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const megabyte int64 = 1024 * 1024

// Rotate struct for each instance of Rotate
type Rotate struct {
	FileName string
	Rotate   *bool
	MaxSize  int64

	size   int64
	output *os.File
	mu     sync.Mutex
}

// Write implementation to satisfy io.Writer handles length check and rotation
func (r *Rotate) Write(output []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	outputLen := int64(len(output))
	if outputLen > r.maxSize() {
		return 0, fmt.Errorf("write length %v exceeds max file size %v",
			outputLen, r.maxSize())
	}

	if r.output == nil {
		err = r.openOrCreateFile(outputLen)
		if err != nil {
			return 0, err
		}
	}

	if r.Rotate != nil && *r.Rotate {
		if r.size+outputLen > r.maxSize() {
			err = r.rotateFile()
			if err != nil {
				return 0, err
			}
		}
	}

	n, err = r.output.Write(output)
	r.size += int64(n)

	return n, err
}

func (r *Rotate) openOrCreateFile(n int64) error {
	logFile := filepath.Join(LogPath, r.FileName)

	info, err := os.Stat(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return r.openNew()
		}
		return fmt.Errorf("error getting log file info: %s", err)
	}

	if r.Rotate != nil && *r.Rotate {
		if info.Size()+n >= r.maxSize() {
			return r.rotateFile()
		}
	}

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_WRONLY, 0o770)
	if err != nil {
		return r.openNew()
	}

	r.output = file
	r.size = info.Size()

	return nil
}

func (r *Rotate) openNew() error {
	name := filepath.Join(LogPath, r.FileName)
	_, err := os.Stat(name)
	if err == nil {
		timestamp := time.Now().Format("2006-01-02T15-04-05")
		newName := filepath.Join(LogPath, timestamp+"-"+r.FileName)
		err = os.Rename(name, newName)
		if err != nil {
			return fmt.Errorf("failed to rename log file: %s", err)
		}
	}

	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o770)
	if err != nil {
		return err
	}
	r.output = file
	r.size = 0
	return nil
}

func (r *Rotate) rotateFile() error {
	if err := r.close(); err != nil {
		return err
	}
	return r.openNew()
}

func (r *Rotate) maxSize() int64 {
	if r.MaxSize <= 0 {
		return DefaultMaxFileSize * megabyte
	}
	return r.MaxSize * megabyte
}

// Close closes the file if it is open
func (r *Rotate) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.close()
}

func (r *Rotate) close() error {
	if r.output == nil {
		return nil
	}
	err := r.output.Close()
	r.output = nil
	return err
}
