package rtlib

// loader is the Platform Loader Shim contract (spec.md §4.7): two
// operations, load_library and find_symbol, each platform implements
// against its native dynamic-linker API.
type loader interface {
	// loadLibrary opens path and returns an opaque, pointer-sized handle.
	// 0 is never a valid handle.
	loadLibrary(path string) (uintptr, error)

	// findSymbol resolves name within the library referred to by handle.
	findSymbol(handle uintptr, name string) (uintptr, error)
}

// platformLoader is assigned by the build-tagged loader_unix.go /
// loader_windows.go file for this GOOS.
var platformLoader loader
