//go:build unix

package walk

import (
	"io/fs"
	"syscall"
)

type fileKey struct {
	dev uint64
	ino uint64
}

func fileKeyOf(info fs.FileInfo) (fileKey, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}
	return fileKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}

func deviceOf(info fs.FileInfo) (uint64, bool) {
	key, ok := fileKeyOf(info)
	return key.dev, ok
}
