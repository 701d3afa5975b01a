package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// SiftHome returns the sift home directory
// Priority order:
//  1. SIFT_HOME environment variable (if set)
//  2. <user config dir>/sift
//
// The directory is not created here; writers create it on demand.
func SiftHome() (string, error) {
	if home := os.Getenv("SIFT_HOME"); home != "" {
		return home, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate sift home: %w", err)
	}
	return filepath.Join(base, "sift"), nil
}
