package executor

import (
	"os"
	"strconv"
	"unsafe"
)

const (
	// minArgMax is the POSIX guaranteed minimum for ARG_MAX.
	minArgMax = 4096
	// argMaxHeadroom is kept free for the loader and anything the
	// environment size misses.
	argMaxHeadroom = 2048
)

var pointerSize = int(unsafe.Sizeof(uintptr(0)))

// argCost returns the bytes a single argument occupies in the exec argument
// area: the string, its terminator and the argv pointer.
func argCost(arg string) int {
	return len(arg) + 1 + pointerSize
}

// environCost returns the bytes consumed by the inherited environment.
func environCost() int {
	cost := pointerSize
	for _, kv := range os.Environ() {
		cost += argCost(kv)
	}
	return cost
}

// CommandLineBudget returns the bytes available for one child's arguments.
// SIFT_ARG_MAX overrides the platform limit.
func CommandLineBudget() int {
	limit := platformArgMax()
	if v, err := strconv.Atoi(os.Getenv("SIFT_ARG_MAX")); err == nil && v > 0 {
		limit = v
	}
	budget := limit - environCost() - argMaxHeadroom
	if budget < minArgMax {
		budget = minArgMax
	}
	return budget
}
