package kernel

// IRQState is the interrupt mask state saved by Port.SuppressInterrupts.
type IRQState uintptr

// Port is the architecture-specific layer beneath the scheduler: context
// switching, the periodic timer and interrupt masking.
type Port interface {
	// ConfigureTimer arms a periodic tick at hz and installs isr as its
	// handler. The isr runs with interrupts suppressed.
	ConfigureTimer(hz uint32, isr func())

	// NewContext prepares the initial execution context of a task so
	// that its first activation calls entry(arg) on the given stack.
	NewContext(name string, entry TaskFunc, arg any, stack StackRegion) (Context, error)

	// FirstTransfer activates target for the first time. On hardware it
	// does not return.
	FirstTransfer(target Context)

	// Switch saves the running context (prev, nil before the first
	// transfer) and activates target. It returns only when prev is
	// activated again.
	Switch(prev, target Context)

	// SuppressInterrupts masks interrupts and returns the previous state.
	SuppressInterrupts() IRQState

	// AllowInterrupts restores a state returned by SuppressInterrupts.
	AllowInterrupts(IRQState)

	// WaitForInterrupt idles until at least one interrupt was serviced.
	WaitForInterrupt()
}
