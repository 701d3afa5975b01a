//go:build darwin

package executor

import "golang.org/x/sys/unix"

func platformArgMax() int {
	n, err := unix.SysctlUint32("kern.argmax")
	if err != nil || n == 0 {
		return 256 * 1024
	}
	return int(n)
}
