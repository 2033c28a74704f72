//go:build windows

package rtlib

import (
	"strings"

	"golang.org/x/sys/windows"

	"github.com/xyproto/weaklink/wkerrors"
)

// windowsLoader implements the Windows half of the Platform Loader Shim
// (spec.md §4.7) via LoadLibraryEx/GetProcAddress, normalizing slashes and
// encoding the path as UTF-16 per spec.md's description.
type windowsLoader struct{}

func init() {
	platformLoader = windowsLoader{}
}

const loadWithAlteredSearchPath = 0x00000008

func (windowsLoader) loadLibrary(path string) (uintptr, error) {
	normalized := strings.ReplaceAll(path, "/", "\\")
	h, err := windows.LoadLibraryEx(normalized, 0, loadWithAlteredSearchPath)
	if err != nil {
		return 0, wkerrors.New(wkerrors.KindLoadFailed, path, err)
	}
	return uintptr(h), nil
}

func (windowsLoader) findSymbol(handle uintptr, name string) (uintptr, error) {
	addr, err := windows.GetProcAddress(windows.Handle(handle), name)
	if err != nil {
		return 0, wkerrors.New(wkerrors.KindSymbolMissing, name, err)
	}
	return addr, nil
}
