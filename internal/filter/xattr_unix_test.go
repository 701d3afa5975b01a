//go:build linux || darwin

package filter

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestClassifyXAttrError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no attribute", errNoAttrErrno, errNoAttribute},
		{"not supported", unix.ENOTSUP, ErrXAttrUnsupported},
		{"operation not supported", unix.EOPNOTSUPP, ErrXAttrUnsupported},
		{"access denied", unix.EACCES, fs.ErrPermission},
		{"not permitted", unix.EPERM, fs.ErrPermission},
		{"other errno", unix.ENOENT, unix.ENOENT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyXAttrError(tt.in), tt.want)
		})
	}
}
