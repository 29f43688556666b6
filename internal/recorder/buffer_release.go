//go:build !debug

package recorder

// newBuffer returns the buffer used by release builds: bounded, never
// blocking the tick.
func newBuffer(size int) eventBuffer {
	return newDroppingBuffer(size)
}
