//go:build !linux && !darwin

package executor

import "runtime"

func platformArgMax() int {
	if runtime.GOOS == "windows" {
		// CreateProcess limits the whole command line to 32767 UTF-16 units.
		return 32 * 1024
	}
	return 128 * 1024
}
