package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/fluxo/csv-writer/pkg/errs"
)

// TargetState describes a target file before the first write
type TargetState struct {
	Exists bool
	Size   int64
}

// Empty reports whether the target has no content yet
func (s TargetState) Empty() bool {
	return !s.Exists || s.Size == 0
}

// Probe inspects the target path. A missing file is not an error.
func Probe(path string) (TargetState, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TargetState{}, nil
		}
		return TargetState{}, errs.IO("stat", path, err)
	}
	if info.IsDir() {
		return TargetState{}, errs.IO("stat", path, errors.New("target is a directory"))
	}
	return TargetState{Exists: true, Size: info.Size()}, nil
}

// Sink is the file-system primitive the CSV writers persist through
type Sink interface {
	// Write stores data at path, creating the file when absent. With truncate
	// set any previous content is discarded, otherwise data is appended.
	Write(path string, data []byte, truncate bool) error
}

// FileSink writes to the local file system and syncs before returning
type FileSink struct {
	Perm fs.FileMode
}

// NewFileSink creates a file sink creating files with mode 0644
func NewFileSink() *FileSink {
	return &FileSink{Perm: 0644}
}

// Write opens path, writes data in one call and fsyncs it
func (s *FileSink) Write(path string, data []byte, truncate bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	perm := s.Perm
	if perm == 0 {
		perm = 0644
	}

	file, err := os.OpenFile(path, flags, perm)
	if err != nil {
		return errs.IO("open", path, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return errs.IO("write", path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return errs.IO("sync", path, err)
	}
	if err := file.Close(); err != nil {
		return errs.IO("close", path, err)
	}
	return nil
}

// Checksum calculates the SHA256 checksum of the file at path
func Checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errs.IO("open", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", errs.IO("read", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
