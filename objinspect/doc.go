// Package objinspect implements the Object Inspector (spec.md §4.1) and its
// Section Range Index auxiliary (spec.md §4.2): it reads ELF shared objects,
// Mach-O dylibs/fat binaries, PE DLLs, and AR archives of ELF/Mach-O/COFF
// objects, and reports the symbols a user would want to stub.
//
// Two entry points mirror spec.md §6's build-time API:
//
//	DylibExports(path) -> exported symbols of a dynamic library
//	ArchiveImports(path) -> undefined symbols referenced by a static archive
package objinspect

// Verbose gates diagnostic prints, mirroring flapc's VerboseMode package
// variable (xyproto-flapc/plt_got.go).
var Verbose bool
