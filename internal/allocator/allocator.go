// Package allocator provides a fixed-arena bump allocator for hosts that
// want to avoid per-frame garbage collection pressure when pulling
// framebuffers and audio buffers out of a Machine in a tight loop (a
// baremetal or WASM host has no GC pauses to spare).
//
// Grounded on _examples/original_source/core/src/utils/static_allocator.rs's
// StaticAllocator/Layout, which backs the original's baremetal Raspberry
// Pi target (_examples/original_source/rpi/src/bin/baremetal) where the
// Rust global allocator is this fixed buffer rather than a heap.
package allocator

import "fmt"

// Layout describes a requested allocation's size and required alignment,
// mirroring the original's Layout type.
type Layout struct {
	Size  int
	Align int
}

// NewLayout returns a Layout aligned to the platform's natural word size.
func NewLayout(size int) Layout {
	return Layout{Size: size, Align: 8}
}

// WithAlign returns a Layout with an explicit power-of-2 alignment.
func WithAlign(size, align int) Layout {
	if !isPowerOf2(align) {
		panic(fmt.Sprintf("allocator: alignment must be a power of 2, got %d", align))
	}
	return Layout{Size: size, Align: align}
}

func isPowerOf2(x int) bool { return x > 0 && x&(x-1) == 0 }

// Arena is a bump allocator over a single fixed-size byte buffer. It
// never frees individual allocations; callers either allocate once at
// startup, or call Reset to reclaim the whole arena between frames.
type Arena struct {
	buffer []byte
	offset int
}

// NewArena allocates a single backing buffer of size bytes on the Go
// heap once, up front, and hands out slices from it thereafter.
func NewArena(size int) *Arena {
	return &Arena{buffer: make([]byte, size)}
}

// Alloc reserves layout.Size bytes at the next address satisfying
// layout.Align, returning a slice into the arena's backing buffer. It
// panics if the arena is exhausted, matching the original's behavior
// (a baremetal target has no fallback allocator to degrade to).
func (a *Arena) Alloc(layout Layout) []byte {
	aligned := alignUp(a.offset, layout.Align)
	end := aligned + layout.Size
	if end > len(a.buffer) {
		panic(fmt.Sprintf("allocator: out of static memory, pool size: %d, allocation req: %d", len(a.buffer), layout.Size))
	}
	a.offset = end
	return a.buffer[aligned:end:end]
}

// Used reports how many bytes of the arena are currently allocated.
func (a *Arena) Used() int { return a.offset }

// Cap reports the arena's total size.
func (a *Arena) Cap() int { return len(a.buffer) }

// Reset reclaims every allocation made since the arena was created (or
// last reset), for hosts that re-derive scratch buffers every frame
// instead of keeping them across frames.
func (a *Arena) Reset() { a.offset = 0 }

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + (align - r)
	}
	return offset
}
