//go:build !unix

package filter

import (
	"io/fs"
)

type systemResolver struct{}

func (systemResolver) LookupUser(name string) (uint32, error) {
	return 0, ErrUnsupportedOnPlatform
}

func (systemResolver) LookupGroup(name string) (uint32, error) {
	return 0, ErrUnsupportedOnPlatform
}

func ownerIDs(info fs.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}
