package rtlib

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID substitutes for the thread-local storage spec.md §4.5's
// per-thread assertion counter vector assumes. Go exposes no public
// goroutine-id API; every production use of this trick (the runtime's own
// debug/pprof label implementation included) parses the header line
// runtime.Stack emits ("goroutine 123 [running]:"). This is the standard,
// if unofficial, substitute — no ecosystem package in the dependency pack
// provides goroutine-local storage, so the cost here is a small stack
// capture on every call (localSet calls this each time it looks up the
// goroutine's counters in checkedState.counters, keyed by this id).
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0
	}
	line = line[len(prefix):]
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
