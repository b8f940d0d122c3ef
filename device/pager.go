package device

// NextChunk returns how many bytes may be written starting at current
// without crossing a page boundary, clipped to remaining.
//
// The returned length is always in [1, remaining] for remaining >= 1, and
// current+length-1 stays inside the page containing current. Every page
// write the engine issues is sized by this function, which is what keeps
// each write command within one physical page.
//
// pageSize must be a power of two (Profile.Validate enforces this).
func NextChunk(current, remaining, pageSize uint32) uint32 {
	count := (current | (pageSize - 1)) - current + 1
	if count > remaining {
		count = remaining
	}
	return count
}
