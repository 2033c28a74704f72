//go:build !windows

package rtlib

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

import (
	"runtime"
	"unsafe"

	"github.com/xyproto/weaklink/wkerrors"
)

// unixLoader implements the Unix half of the Platform Loader Shim (spec.md
// §4.7) via dlopen/dlsym/dlerror. RTLD_GLOBAL differs in value between
// Linux and macOS; both glibc and Darwin's libdl agree on RTLD_LAZY=1, but
// RTLD_GLOBAL is 0x100 on Linux and 0x8 on Darwin, so it is resolved per
// GOOS rather than hardcoded.
type unixLoader struct{}

func init() {
	platformLoader = unixLoader{}
}

func rtldGlobal() C.int {
	if runtime.GOOS == "darwin" {
		return 0x8
	}
	return 0x100
}

func (unixLoader) loadLibrary(path string) (uintptr, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror() // clear any pending error
	handle := C.dlopen(cpath, C.RTLD_LAZY|rtldGlobal())
	if handle == nil {
		msg := C.GoString(C.dlerror())
		return 0, wkerrors.New(wkerrors.KindLoadFailed, path+": "+msg, nil)
	}
	return uintptr(unsafe.Pointer(handle)), nil
}

func (unixLoader) findSymbol(handle uintptr, name string) (uintptr, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	addr := C.dlsym(unsafe.Pointer(handle), cname)
	if addr == nil {
		if msg := C.dlerror(); msg != nil {
			return 0, wkerrors.New(wkerrors.KindSymbolMissing, name+": "+C.GoString(msg), nil)
		}
		return 0, wkerrors.New(wkerrors.KindSymbolMissing, name, nil)
	}
	return uintptr(addr), nil
}
