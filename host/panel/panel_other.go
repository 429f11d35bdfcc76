//go:build !linux

package panel

import "errors"

// Open is only supported on Linux.
func Open(red, green string) (*Panel, error) {
	return nil, errors.New("gpio: panel needs linux")
}
