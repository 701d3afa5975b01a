//go:build !linux && !darwin

package filter

func readXAttr(path, name string, follow bool) ([]byte, error) {
	return nil, ErrXAttrUnsupported
}
