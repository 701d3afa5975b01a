//go:build linux || darwin

package filter

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

const maxXAttrRetries = 4

// readXAttr returns the raw value of an extended attribute. The size query is
// repeated when the value grows between the two calls.
func readXAttr(path, name string, follow bool) ([]byte, error) {
	get := unix.Lgetxattr
	if follow {
		get = unix.Getxattr
	}

	var lastErr error
	for attempt := 0; attempt < maxXAttrRetries; attempt++ {
		size, err := get(path, name, nil)
		if err != nil {
			return nil, classifyXAttrError(err)
		}
		if size == 0 {
			return []byte{}, nil
		}

		buf := make([]byte, size)
		n, err := get(path, name, buf)
		if errors.Is(err, unix.ERANGE) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, classifyXAttrError(err)
		}
		return buf[:n], nil
	}
	return nil, lastErr
}

func classifyXAttrError(err error) error {
	switch {
	case errors.Is(err, errNoAttrErrno):
		return errNoAttribute
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		return ErrXAttrUnsupported
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fs.ErrPermission
	default:
		return err
	}
}
