//go:build !unix

package ipc

import "errors"

// OpenInherited is only supported on unix.
func OpenInherited() (*Consumer, string, error) {
	return nil, "", errors.New("inherited dashboard link not supported on this platform")
}
