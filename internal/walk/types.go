package walk

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/sift/internal/models"
)

// typeFilter implements --type. Kinds are alternatives; executable and
// empty further restrict whatever kinds are selected.
type typeFilter struct {
	set         bool
	files       bool
	dirs        bool
	symlinks    bool
	sockets     bool
	pipes       bool
	executables bool
	empty       bool
}

func parseTypes(names []string) (typeFilter, error) {
	var tf typeFilter
	for _, name := range names {
		tf.set = true
		switch strings.ToLower(name) {
		case "f", "file":
			tf.files = true
		case "d", "dir", "directory":
			tf.dirs = true
		case "l", "symlink":
			tf.symlinks = true
		case "s", "socket":
			tf.sockets = true
		case "p", "pipe":
			tf.pipes = true
		case "x", "executable":
			tf.executables = true
			tf.files = true
		case "e", "empty":
			tf.empty = true
		default:
			return tf, fmt.Errorf("unknown file type %q", name)
		}
	}
	if tf.empty && !tf.files && !tf.dirs {
		tf.files = true
		tf.dirs = true
	}
	return tf, nil
}

func (tf typeFilter) matches(e *models.Entry) bool {
	if !tf.set {
		return true
	}
	info, err := e.Metadata()
	if err != nil {
		return false
	}

	switch models.TypeFromMode(info.Mode()) {
	case models.TypeFile:
		if !tf.files {
			return false
		}
	case models.TypeDir:
		if !tf.dirs {
			return false
		}
	case models.TypeSymlink:
		if !tf.symlinks {
			return false
		}
	case models.TypeSocket:
		if !tf.sockets {
			return false
		}
	case models.TypePipe:
		if !tf.pipes {
			return false
		}
	default:
		return false
	}

	if tf.executables && (!info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0) {
		return false
	}
	if tf.empty && !isEmpty(e.Path, info) {
		return false
	}
	return true
}

func isEmpty(path string, info os.FileInfo) bool {
	if info.Mode().IsRegular() {
		return info.Size() == 0
	}
	if !info.IsDir() {
		return false
	}
	dir, err := os.Open(path)
	if err != nil {
		return false
	}
	defer dir.Close()
	_, err = dir.Readdirnames(1)
	return err == io.EOF
}
