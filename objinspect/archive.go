package objinspect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/weaklink/wkerrors"
)

const arMagic = "!<arch>\n"

// arMember is one entry of a common ("ar"/System V) archive, as produced by
// every toolchain's `ar` for ELF, Mach-O and COFF member objects alike
// (spec.md §4.1 AR archive row).
type arMember struct {
	name string
	data []byte
}

// readArMembers parses the common ar(1) format: an 8-byte magic, then a
// sequence of 60-byte headers each followed by the member's (even-padded)
// data. No third-party archive-reading library exists anywhere in the
// retrieval pack, and the format itself is a fixed, tiny text-header
// container — DESIGN.md records this as a standard-library/hand-rolled
// component with no suitable ecosystem alternative.
func readArMembers(path string) ([]arMember, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wkerrors.New(wkerrors.KindIO, "open archive", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic := make([]byte, len(arMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != arMagic {
		return nil, wkerrors.New(wkerrors.KindFormat, "not an ar archive", err)
	}

	var (
		members  []arMember
		longNames string
	)
	for {
		hdr := make([]byte, 60)
		if _, err := io.ReadFull(br, hdr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, wkerrors.New(wkerrors.KindFormat, "truncated archive header", err)
		}

		name := strings.TrimRight(string(hdr[0:16]), " ")
		sizeField := strings.TrimSpace(string(hdr[48:58]))
		size, err := strconv.ParseInt(sizeField, 10, 64)
		if err != nil {
			return nil, wkerrors.New(wkerrors.KindFormat, fmt.Sprintf("bad member size %q", sizeField), err)
		}

		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, wkerrors.New(wkerrors.KindFormat, "truncated archive member", err)
		}
		if size%2 == 1 {
			br.Discard(1) // archives pad members to even length
		}

		switch {
		case name == "//":
			// GNU extended-name table: subsequent "/<offset>" names index it.
			longNames = string(data)
			continue
		case name == "/" || name == "":
			continue // symbol index / malformed, not a real member
		case strings.HasPrefix(name, "/"):
			off, err := strconv.Atoi(strings.TrimSuffix(name[1:], "/"))
			if err == nil && off < len(longNames) {
				name = longNames[off:]
				if idx := strings.IndexAny(name, "/\n"); idx >= 0 {
					name = name[:idx]
				}
			}
		default:
			name = strings.TrimSuffix(name, "/")
		}

		members = append(members, arMember{name: name, data: data})
	}
	return members, nil
}

// archiveImportsFromMembers recursively inspects each member (dispatching by
// its own container format) and unions their imports, collapsing duplicates
// across the whole archive (spec.md §4.1 AR archive row, §4.1 "set of
// archive members collapsed" note in the Import data-model entry).
func archiveImportsFromMembers(archivePath string, members []arMember) ([]Import, error) {
	var all []Import
	for _, m := range members {
		memberPath, cleanup, err := spillToTemp(m.data, m.name)
		if err != nil {
			return nil, err
		}
		imports, err := inspectObjectImports(memberPath)
		cleanup()
		if err != nil {
			if Verbose {
				fmt.Fprintf(os.Stderr, "weaklink: %s(%s): %v\n", archivePath, m.name, err)
			}
			continue
		}
		all = append(all, imports...)
	}
	return dedupeImports(all), nil
}

// inspectObjectImports dispatches an archive member to the ELF, Mach-O or
// COFF import reader by sniffing its magic bytes.
func inspectObjectImports(path string) ([]Import, error) {
	magic, err := readMagic(path)
	if err != nil {
		return nil, err
	}
	switch {
	case isELFMagic(magic):
		return elfArchiveImports(path)
	case isMachOMagic(magic):
		return machoArchiveImports(path)
	case isCOFFMagic(magic):
		return coffImports(path)
	default:
		return nil, wkerrors.New(wkerrors.KindFormat, "unrecognized archive member format", nil)
	}
}
