// Package rtlib implements the small runtime (spec.md §4.5–§4.7) that the
// stub translation units codegen.Generate emits link against: a Library
// object that loads the target dynamic library and resolves symbols into a
// synthetic table, a Group object that resolves a named subset of symbols
// as a unit, and a platform loader shim wrapping dlopen/dlsym or
// LoadLibraryEx/GetProcAddress.
package rtlib

// Verbose mirrors objinspect.Verbose and flapc's own VerboseMode switch:
// when set, Library.Load and Library.LoadFrom log the library they loaded
// to stderr.
var Verbose bool
