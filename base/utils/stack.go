package utils

import (
	"bytes"
	"runtime"
)

// Stack returns the calling goroutine's stack trace with the innermost
// skip frames removed, keeping the goroutine header line.
func Stack(skip int) []byte {
	buf := make([]byte, 4096)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, len(buf)*2)
	}

	lines := bytes.SplitN(buf, []byte("\n"), 1+skip*2)
	if len(lines) < 1+skip*2 {
		return buf
	}
	// each frame occupies two lines after the header
	return append(append([]byte{}, lines[0]...), append([]byte("\n"), lines[skip*2]...)...)
}
