package filter

import (
	"fmt"
	"runtime"
)

// Capability names a platform-conditional feature.
type Capability string

const (
	CapOwner              Capability = "owner"
	CapSameFilesystem     Capability = "one-file-system"
	CapExtendedAttributes Capability = "xattr"
)

// Capabilities records which platform-conditional features are available.
// It is resolved once at startup; requested features outside the set fail
// configuration instead of silently doing nothing.
type Capabilities struct {
	Owner              bool
	SameFilesystem     bool
	ExtendedAttributes bool
}

// Available returns the capabilities of the running platform.
func Available() Capabilities {
	return platformCapabilities
}

// Has reports whether c includes capability.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CapOwner:
		return c.Owner
	case CapSameFilesystem:
		return c.SameFilesystem
	case CapExtendedAttributes:
		return c.ExtendedAttributes
	default:
		return false
	}
}

// Require returns an error naming the first requested capability that is missing.
func (c Capabilities) Require(capabilities ...Capability) error {
	for _, capability := range capabilities {
		if !c.Has(capability) {
			return fmt.Errorf("--%s: %w (%s)", capability, ErrUnsupportedOnPlatform, runtime.GOOS)
		}
	}
	return nil
}
