//go:build unix

package filter

import "runtime"

var platformCapabilities = Capabilities{
	Owner:              true,
	SameFilesystem:     true,
	ExtendedAttributes: runtime.GOOS == "linux" || runtime.GOOS == "darwin",
}
