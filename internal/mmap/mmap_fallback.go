//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly) && !windows

package mmap

import "fmt"

// Alloc allocates size bytes on the Go heap when anonymous mappings are not
// available.
func Alloc(size int) (data []byte, release func() error, err error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	defer func() {
		if r := recover(); r != nil {
			data, release = nil, nil
			err = fmt.Errorf("mmap: heap allocation of %d bytes: %v", size, r)
		}
	}()
	data = make([]byte, size)
	return data, func() error { return nil }, nil
}
