//go:build !unix

package walk

import "io/fs"

type fileKey struct{}

func fileKeyOf(fs.FileInfo) (fileKey, bool) {
	return fileKey{}, false
}

func deviceOf(fs.FileInfo) (uint64, bool) {
	return 0, false
}
