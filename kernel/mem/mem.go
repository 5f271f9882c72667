package mem

const (
	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a page number (shift right by PageShift)
	// and vice-versa.
	PageShift = 12

	// PageSize defines the Sv39 base page size in bytes. Every region of the
	// kernel image starts on a PageSize boundary.
	PageSize = Size(1 << PageShift)

	// PointerShift is equal to log2(unsafe.Sizeof(uintptr)) on RV64.
	PointerShift = 3
)

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// Pages returns the number of pages that are required for storing this size.
func (s Size) Pages() uint32 {
	pageSizeMinus1 := PageSize - 1
	return uint32((s+pageSizeMinus1)&^pageSizeMinus1) >> PageShift
}

// AlignUp rounds addr up to the next multiple of align. align must be a power
// of two.
func AlignUp(addr uintptr, align Size) uintptr {
	mask := uintptr(align) - 1
	return (addr + mask) &^ mask
}

// IsAligned reports whether addr is a multiple of align. align must be a
// power of two.
func IsAligned(addr uintptr, align Size) bool {
	return addr&(uintptr(align)-1) == 0
}
