package mapfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// MapFile is a fully parsed linker map: an ordered list of segments, each
// owning an ordered list of sections, each owning an ordered list of
// symbols. A MapFile exclusively owns its tree; query methods borrow
// pointers into it and never copy, mirroring the lifetime-borrowed return
// types of the original Rust implementation.
type MapFile struct {
	Segments []Segment
}

func newMapFile() *MapFile {
	return &MapFile{}
}

// ParseFile reads and parses the map file at path, guessing its dialect
// from its contents (see ParseString).
func ParseFile(path string) (*MapFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseString(string(contents)), nil
}

// ParseString parses the contents of a map file, guessing whether it was
// produced by GNU ld, clang's ld.lld, or Metrowerks mwld:
//
//   - a line matching `\s+VMA\s+LMA\s+Size\s+Align\s+Out\s+In\s+Symbol`
//     anywhere in the text selects the LLD dialect;
//   - otherwise, text starting with "Link map of " or containing
//     " section layout" selects the Metrowerks dialect;
//   - otherwise, GNU is assumed as the fallback.
func ParseString(contents string) *MapFile {
	switch {
	case lldHeaderRegexp.MatchString(contents):
		return ParseLLDString(contents)
	case strings.HasPrefix(contents, "Link map of ") || strings.Contains(contents, " section layout"):
		return ParseMWString(contents)
	default:
		return ParseGNUString(contents)
	}
}

// FilterBySectionType returns a new MapFile retaining only sections with
// the given section type; segments left with no sections are dropped.
func (m *MapFile) FilterBySectionType(sectionType string) *MapFile {
	out := newMapFile()
	for _, segment := range m.Segments {
		filtered := segment.FilterBySectionType(sectionType)
		if len(filtered.Sections) > 0 {
			out.Segments = append(out.Segments, filtered)
		}
	}
	return out
}

// GetEverySectionExceptSectionType is the complement of
// FilterBySectionType.
func (m *MapFile) GetEverySectionExceptSectionType(sectionType string) *MapFile {
	out := newMapFile()
	for _, segment := range m.Segments {
		filtered := segment.GetEverySectionExceptSectionType(sectionType)
		if len(filtered.Sections) > 0 {
			out.Segments = append(out.Segments, filtered)
		}
	}
	return out
}

// FindSymbolByName returns the first hit in segment/section order.
func (m *MapFile) FindSymbolByName(name string) *FoundSymbolInfo {
	for i := range m.Segments {
		if info := m.Segments[i].FindSymbolByName(name); info != nil {
			return info
		}
	}
	return nil
}

// FindSymbolByVram searches every segment for a symbol containing address;
// failing that, it returns every section whose VRAM range contains address,
// so the caller can tell "within the map but not a known symbol" apart from
// "outside every section".
func (m *MapFile) FindSymbolByVram(address uint64) (*FoundSymbolInfo, []*Section) {
	var possible []*Section
	for i := range m.Segments {
		info, possibleAux := m.Segments[i].FindSymbolByVram(address)
		if info != nil {
			return info, nil
		}
		possible = append(possible, possibleAux...)
	}
	return nil, possible
}

// FindSymbolByVrom is the VROM-based counterpart of FindSymbolByVram.
func (m *MapFile) FindSymbolByVrom(address uint64) (*FoundSymbolInfo, []*Section) {
	var possible []*Section
	for i := range m.Segments {
		info, possibleAux := m.Segments[i].FindSymbolByVrom(address)
		if info != nil {
			return info, nil
		}
		possible = append(possible, possibleAux...)
	}
	return nil, possible
}

// FindLowestDifferingSymbol walks self's symbols in (segment, section,
// position) order and returns the one with the lowest VRAM whose
// same-named counterpart in other has a different VRAM, together with the
// symbol immediately preceding it in self (backtracking across earlier
// non-empty sections/segments when the differing symbol is first in its
// section). Returns nil if no symbol differs.
func (m *MapFile) FindLowestDifferingSymbol(other *MapFile) (sym *Symbol, section *Section, prev *Symbol) {
	minVram := uint64(1<<64 - 1)
	var foundSym *Symbol
	var foundSection *Section
	var foundPrev *Symbol
	foundI, foundJ := -1, -1
	havePrev := false

	for i := range m.Segments {
		segment := &m.Segments[i]
		for j := range segment.Sections {
			built := &segment.Sections[j]
			for k := range built.Symbols {
				builtSym := &built.Symbols[k]

				expectedInfo := other.FindSymbolByName(builtSym.Name)
				if expectedInfo == nil {
					continue
				}

				if builtSym.Vram != expectedInfo.Symbol.Vram && builtSym.Vram < minVram {
					minVram = builtSym.Vram

					foundSym = builtSym
					foundSection = built
					if k > 0 {
						foundPrev = &built.Symbols[k-1]
						havePrev = true
					} else {
						foundPrev = nil
						havePrev = false
					}
					foundI, foundJ = i, j
				}
			}
		}
	}

	if foundSym == nil {
		return nil, nil, nil
	}

	if !havePrev {
		// The previous symbol was not in the same section as the one we
		// found, so backtrack across earlier sections/segments until we
		// find any symbol.
		i, j := foundI, foundJ-1

	outer:
		for i >= 0 {
			segment := &m.Segments[i]
			for j >= 0 {
				built := &segment.Sections[j]
				if len(built.Symbols) > 0 {
					foundPrev = &built.Symbols[len(built.Symbols)-1]
					break outer
				}
				j--
			}
			i--
			if i >= 0 {
				j = len(m.Segments[i].Sections) - 1
			}
		}
	}

	return foundSym, foundSection, foundPrev
}

// MixFolders returns a new MapFile with every segment's sections merged as
// described in Segment.MixFolders.
func (m *MapFile) MixFolders() *MapFile {
	out := newMapFile()
	for _, segment := range m.Segments {
		out.Segments = append(out.Segments, segment.MixFolders())
	}
	return out
}

// GetProgress walks every section's symbols, classifying each via
// Section.SymbolMatchStateIter, and accumulates decomped/undecomped byte
// totals globally and per top-level folder. The folder for a section is
// the PathIndex'th path component (or the last component if settings is
// nil), rewritten through aliases when present.
func (m *MapFile) GetProgress(settings *PathDecompSettings, aliases map[string]string) (ProgressStats, map[string]ProgressStats) {
	var total ProgressStats
	perFolder := make(map[string]ProgressStats)

	for i := range m.Segments {
		segment := &m.Segments[i]
		for j := range segment.Sections {
			section := &segment.Sections[j]
			if len(section.Symbols) == 0 {
				continue
			}

			components := pathComponents(section.Filepath)
			pathIndex := len(components) - 1
			if settings != nil {
				pathIndex = settings.PathIndex
			}
			if pathIndex < 0 {
				pathIndex = 0
			}
			folder := ""
			if pathIndex < len(components) {
				folder = components[pathIndex]
			}
			if alias, ok := aliases[folder]; ok {
				folder = alias
			}

			folderStats := perFolder[folder]

			it := section.SymbolMatchStateIter(settings)
			for {
				state, ok := it.Next()
				if !ok {
					break
				}
				size := int(state.Symbol.Size)
				switch state.State {
				case Decomped:
					total.DecompedSize += size
					folderStats.DecompedSize += size
				case Undecomped:
					total.UndecompedSize += size
					folderStats.UndecompedSize += size
				}
			}

			perFolder[folder] = folderStats
		}
	}

	return total, perFolder
}

// CompareFilesAndSymbols pairs every symbol in self with the same-named
// symbol in other and records the VRAM diff (useful for spotting bss
// reorders). When checkOtherOnSelf is set, the comparison also runs in the
// opposite direction to catch symbols present only in other.
func (m *MapFile) CompareFilesAndSymbols(other *MapFile, checkOtherOnSelf bool) *MapsComparisonInfo {
	info := newMapsComparisonInfo()

	for i := range m.Segments {
		segment := &m.Segments[i]
		for j := range segment.Sections {
			section := &segment.Sections[j]
			for k := range section.Symbols {
				sym := &section.Symbols[k]

				if found := other.FindSymbolByName(sym.Name); found != nil {
					comp := newSymbolComparisonInfo(sym, sym.Vram, section, found.Symbol.Vram, found.Section)

					if diff := comp.Diff(); diff == nil || *diff != 0 {
						info.BadSections[section] = true
					}
					info.ComparedList = append(info.ComparedList, comp)
				} else {
					info.MissingSections[section] = true
					info.ComparedList = append(info.ComparedList, newSymbolComparisonInfo(sym, sym.Vram, section, noAddress, nil))
				}
			}
		}
	}

	if checkOtherOnSelf {
		for i := range other.Segments {
			segment := &other.Segments[i]
			for j := range segment.Sections {
				section := &segment.Sections[j]
				for k := range section.Symbols {
					sym := &section.Symbols[k]

					if m.FindSymbolByName(sym.Name) == nil {
						info.MissingSections[section] = true
						info.ComparedList = append(info.ComparedList, newSymbolComparisonInfo(sym, noAddress, nil, sym.Vram, section))
					}
				}
			}
		}
	}

	return info
}

// ToCSV renders every section across every segment as CSV, header
// included.
func (m *MapFile) ToCSV(printVram, skipWithoutSymbols bool) string {
	out := ToCSVSectionHeader(printVram) + "\n"
	for _, segment := range m.Segments {
		out += segment.ToCSV(printVram, skipWithoutSymbols)
	}
	return out
}

// ToCSVSymbols renders every symbol across every segment as CSV, header
// included.
func (m *MapFile) ToCSVSymbols() string {
	out := fmt.Sprintf("Section,%s\n", ToCSVSymbolHeader())
	for _, segment := range m.Segments {
		out += segment.ToCSVSymbols()
	}
	return out
}
