package codegen

import (
	"crypto/rand"
	"encoding/hex"
)

// randomSuffix returns an 8-hex-digit random string for the synthetic
// symbol table's name, avoiding collisions when multiple stub crates
// coexist in one process (spec.md §4.4 item 2). spec.md §9's Open Question
// ("no re-seed control") is resolved by Input.TableSuffix: callers that
// need determinism (tests, spec.md §8 "Generator determinism") set it
// explicitly and this function is never reached.
func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the OS entropy source is broken; any
		// generated source is better than none, so fall back to a fixed
		// value rather than failing the whole build.
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
