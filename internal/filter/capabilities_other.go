//go:build !unix

package filter

var platformCapabilities = Capabilities{}
