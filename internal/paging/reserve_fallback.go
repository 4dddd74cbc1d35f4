//go:build !unix

package paging

import "fmt"

// ReserveRange allocates the virtual range from the Go heap when anonymous
// mmap is not available.
func ReserveRange(pages int) ([]byte, func() error, error) {
	if pages <= 0 {
		return nil, nil, fmt.Errorf("paging: invalid range size (%d pages)", pages)
	}
	return make([]byte, pages*PageSize), func() error { return nil }, nil
}
