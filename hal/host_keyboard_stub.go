//go:build !tinygo && !cgo

package hal

// poll is a no-op: without cgo there is no window to read keys from.
func (k *hostKeyboard) poll() {}
