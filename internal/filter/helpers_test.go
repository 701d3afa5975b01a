package filter

import (
	"io/fs"
	"time"

	"github.com/harrison/sift/internal/models"
)

type fakeInfo struct {
	name  string
	size  int64
	mode  fs.FileMode
	mtime time.Time
	sys   any
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return f.mtime }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return f.sys }

func entryWithSize(size int64) *models.Entry {
	return models.NewEntryWithInfo("file.bin", 1, false, fakeInfo{name: "file.bin", size: size}, nil)
}

func entryWithMTime(t time.Time) *models.Entry {
	return models.NewEntryWithInfo("file.txt", 1, false, fakeInfo{name: "file.txt", mtime: t}, nil)
}

func brokenEntry() *models.Entry {
	return models.NewEntryWithInfo("gone", 1, false, nil, fs.ErrNotExist)
}
