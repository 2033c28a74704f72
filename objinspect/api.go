package objinspect

import (
	"debug/elf"
	"os"
	"path/filepath"

	"github.com/xyproto/weaklink/wkerrors"
)

// DylibExports reads path fully, dispatches on its detected container
// format, and returns the deduplicated set of exported symbols (spec.md §6,
// build-time API). Supported containers are ELF, Mach-O (thin or fat) and
// PE; an AR archive or COFF object is not a valid export container.
func DylibExports(path string) ([]Export, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, err
	}
	switch {
	case isELFMagic(magic):
		return elfExports(path)
	case isMachOMagic(magic):
		return machoDylibExports(path)
	case isPEMagic(magic):
		return peExports(path)
	default:
		return nil, wkerrors.New(wkerrors.KindFormat, "unrecognized dynamic library container", nil)
	}
}

// ArchiveImports reads path fully, dispatches on its detected container
// format, and returns the deduplicated set of undefined symbols (spec.md
// §6). path may itself be a single ELF/Mach-O/COFF object, or an AR archive
// whose members are recursively inspected and unioned.
func ArchiveImports(path string) ([]Import, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, err
	}
	if string(magic[:len(arMagic)]) == arMagic {
		members, err := readArMembers(path)
		if err != nil {
			return nil, err
		}
		return archiveImportsFromMembers(path, members)
	}
	return inspectObjectImports(path)
}

func elfArchiveImports(path string) ([]Import, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindFormat, "open ELF object", err)
	}
	defer f.Close()
	return elfImports(f)
}

// spillToTemp writes data to a temporary file named after hint (the archive
// member's own name, for readable diagnostics) so the existing path-based
// format readers (debug/elf, blacktop/go-macho, debug/pe) can be reused
// unmodified on archive members, which only exist as in-memory byte slices
// once extracted from their containing ar file.
func spillToTemp(data []byte, hint string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "weaklink-"+filepath.Base(hint)+"-*")
	if err != nil {
		return "", nil, wkerrors.New(wkerrors.KindIO, "create temp member file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, wkerrors.New(wkerrors.KindIO, "write temp member file", err)
	}
	name := f.Name()
	f.Close()
	return name, func() { os.Remove(name) }, nil
}
