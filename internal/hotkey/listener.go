// Package hotkey watches for a global key that toggles playback while the
// terminal is not focused.
package hotkey

import "context"

// Listener reports presses of one global key.
type Listener interface {
	// Start blocks, calling onPress for each key press (not release or
	// auto-repeat) until ctx is cancelled or Stop is called.
	Start(ctx context.Context, onPress func()) error
	Stop()
	KeyName() string
}

// Debounce wraps onPress, dropping presses that arrive less than minGapMs
// after the last accepted one. now returns milliseconds.
func Debounce(onPress func(), minGapMs int64, now func() int64) func() {
	var last int64 = -1 << 62
	return func() {
		t := now()
		if t-last < minGapMs {
			return
		}
		last = t
		onPress()
	}
}
