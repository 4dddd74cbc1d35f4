package layout

// Alignment utilities for the heap arena. Block sizes and header offsets must
// stay 8-byte aligned; arena growth happens in whole pages.

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + MinAlignMask) & ^MinAlignMask
}

// AlignPage returns n aligned up to the next page (4096-byte) boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageMask) & ^PageMask
}

// AlignUp returns n aligned up to the next multiple of align. align must be a
// power of two.
func AlignUp(n, align int) int {
	return (n + align - 1) & ^(align - 1)
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
