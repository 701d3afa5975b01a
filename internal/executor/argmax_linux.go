//go:build linux

package executor

import "golang.org/x/sys/unix"

const (
	linuxMinArgMax = 128 * 1024
	linuxMaxArgMax = 6 * 1024 * 1024
)

// platformArgMax mirrors the kernel rule: a quarter of the stack limit,
// never below 128 KiB.
func platformArgMax() int {
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &rlim); err != nil {
		return linuxMinArgMax
	}
	if rlim.Cur == unix.RLIM_INFINITY {
		return linuxMaxArgMax
	}
	limit := rlim.Cur / 4
	switch {
	case limit < linuxMinArgMax:
		return linuxMinArgMax
	case limit > linuxMaxArgMax:
		return linuxMaxArgMax
	}
	return int(limit)
}
