package workload

import (
	"errors"
	"fmt"

	"rtk/kernel"
)

// ErrArenaExhausted is returned when a stack does not fit in the arena.
var ErrArenaExhausted = errors.New("stack arena exhausted")

const stackAlign = 8

// StackArena carves task stacks out of one fixed memory region. Stacks are
// never returned: tasks do not terminate.
type StackArena struct {
	base uintptr
	size uint32
	used uint32
}

// NewStackArena returns an arena covering [base, base+size).
func NewStackArena(base uintptr, size uint32) *StackArena {
	return &StackArena{base: base, size: size}
}

// Alloc reserves n bytes, rounded up to 8-byte alignment.
func (a *StackArena) Alloc(n uint32) (kernel.StackRegion, error) {
	if n == 0 {
		return kernel.StackRegion{}, fmt.Errorf("zero-size stack")
	}
	if n <= a.size-a.used {
		n = (n + stackAlign - 1) &^ (stackAlign - 1)
	}
	if n > a.size-a.used {
		return kernel.StackRegion{}, fmt.Errorf("%w: need %d bytes, %d free", ErrArenaExhausted, n, a.size-a.used)
	}
	r := kernel.StackRegion{Base: a.base + uintptr(a.used), Size: n}
	a.used += n
	return r, nil
}

// Free returns the number of unreserved bytes.
func (a *StackArena) Free() uint32 {
	return a.size - a.used
}
