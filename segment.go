package mapfile

import (
	"fmt"
	"path"
	"strings"
)

// Segment is one output memory region, grouping an ordered list of
// sections under a shared VRAM/VROM.
//
// Identity for hashing/equality is the tuple (Name, Vram, Size, Vrom).
type Segment struct {
	Name string

	Vram uint64
	Size uint64

	Vrom  *uint64
	Align *uint64

	Sections []Section
}

// NewSegment creates a segment with an empty section list.
func NewSegment(name string, vram, size uint64, vrom, align *uint64) Segment {
	return Segment{Name: name, Vram: vram, Size: size, Vrom: vrom, Align: align}
}

func newDefaultSegment(name string, vram, size uint64, vrom *uint64) Segment {
	return Segment{Name: name, Vram: vram, Size: size, Vrom: vrom}
}

// cloneNoSections copies every field except the section list, used as the
// starting point for filtering/mixing operations that rebuild the list.
func (g Segment) cloneNoSections() Segment {
	return Segment{Name: g.Name, Vram: g.Vram, Size: g.Size, Vrom: g.Vrom, Align: g.Align}
}

// newPlaceholderSegment returns the sentinel segment seeded at the start of
// every dialect's temporary parse list.
func newPlaceholderSegment() Segment {
	return Segment{Name: "$nosegment", Sections: []Section{newPlaceholderSection()}}
}

// IsPlaceholder reports whether this is the sentinel placeholder segment.
func (g Segment) IsPlaceholder() bool {
	if g.Name != "$nosegment" || g.Vram != 0 || g.Size != 0 || g.Vrom != nil || g.Align != nil {
		return false
	}
	if len(g.Sections) == 0 {
		return true
	}
	return len(g.Sections) == 1 && g.Sections[0].IsPlaceholder()
}

// FilterBySectionType returns a copy of the segment retaining only sections
// of the given type.
func (g Segment) FilterBySectionType(sectionType string) Segment {
	out := g.cloneNoSections()
	for _, section := range g.Sections {
		if section.SectionType == sectionType {
			out.Sections = append(out.Sections, section)
		}
	}
	return out
}

// GetEverySectionExceptSectionType is the complement of
// FilterBySectionType.
func (g Segment) GetEverySectionExceptSectionType(sectionType string) Segment {
	out := g.cloneNoSections()
	for _, section := range g.Sections {
		if section.SectionType != sectionType {
			out.Sections = append(out.Sections, section)
		}
	}
	return out
}

// FindSymbolByName returns the first hit in section order.
func (g *Segment) FindSymbolByName(name string) *FoundSymbolInfo {
	for i := range g.Sections {
		if sym := g.Sections[i].FindSymbolByName(name); sym != nil {
			return newDefaultFoundSymbolInfo(&g.Sections[i], sym)
		}
	}
	return nil
}

// FindSymbolByVram searches every section for a symbol containing address;
// if none matches exactly, the sections whose VRAM range contains address
// are returned so the caller knows the address is within the segment but
// not a known symbol.
func (g *Segment) FindSymbolByVram(address uint64) (*FoundSymbolInfo, []*Section) {
	var possible []*Section
	for i := range g.Sections {
		section := &g.Sections[i]
		if sym, offset, ok := section.FindSymbolByVram(address); ok {
			return newFoundSymbolInfo(section, sym, offset), nil
		}
		if address >= section.Vram && address < section.Vram+section.Size {
			possible = append(possible, section)
		}
	}
	return nil, possible
}

// FindSymbolByVrom is the VROM-based counterpart of FindSymbolByVram.
func (g *Segment) FindSymbolByVrom(address uint64) (*FoundSymbolInfo, []*Section) {
	var possible []*Section
	for i := range g.Sections {
		section := &g.Sections[i]
		if sym, offset, ok := section.FindSymbolByVrom(address); ok {
			return newFoundSymbolInfo(section, sym, offset), nil
		}
		if section.Vrom != nil && address >= *section.Vrom && address < *section.Vrom+section.Size {
			possible = append(possible, section)
		}
	}
	return nil, possible
}

// mixFoldersSkipComponents is the number of leading path components
// MixFolders drops unconditionally before grouping by folder. The Rust
// source hardcodes this; we expose it as a named constant per spec.md §9's
// open question about making it tunable in the future.
const mixFoldersSkipComponents = 2

// MixFolders collapses every section that shares a parent folder (after
// dropping the first mixFoldersSkipComponents path components and the file
// name) into one synthetic section per folder, with concatenated symbols
// and summed sizes.
func (g Segment) MixFolders() Segment {
	out := g.cloneNoSections()

	type folderBucket struct {
		order    int
		sections []*Section
	}
	buckets := make(map[string]*folderBucket)
	var order []string

	for i := range g.Sections {
		section := &g.Sections[i]

		// The key is the section's directory with the first
		// mixFoldersSkipComponents components dropped; the file name is not
		// part of it, so every object under the same folder merges.
		folder := skipComponents(path.Dir(section.Filepath), mixFoldersSkipComponents)

		bucket, ok := buckets[folder]
		if !ok {
			bucket = &folderBucket{order: len(order)}
			buckets[folder] = bucket
			order = append(order, folder)
		}
		bucket.sections = append(bucket.sections, section)
	}

	for _, folder := range order {
		bucket := buckets[folder]
		first := bucket.sections[0]

		merged := NewSection(folder, first.Vram, 0, first.SectionType, first.Vrom, first.Align)
		for _, section := range bucket.sections {
			merged.Size += section.Size
			merged.Symbols = append(merged.Symbols, section.Symbols...)
		}
		out.Sections = append(out.Sections, merged)
	}

	return out
}

// ToCSV renders every section as CSV, one row per line, optionally skipping
// sections with no symbols.
func (g Segment) ToCSV(printVram, skipWithoutSymbols bool) string {
	var b strings.Builder
	for _, section := range g.Sections {
		if skipWithoutSymbols && len(section.Symbols) == 0 {
			continue
		}
		fmt.Fprintln(&b, section.ToCSV(printVram))
	}
	return b.String()
}

// ToCSVSymbols renders every symbol across every section as CSV, one row
// per symbol, prefixed with the owning section's filepath.
func (g Segment) ToCSVSymbols() string {
	var b strings.Builder
	for _, section := range g.Sections {
		if len(section.Symbols) == 0 {
			continue
		}
		for _, sym := range section.Symbols {
			fmt.Fprintf(&b, "%s,%s\n", section.Filepath, sym.ToCSV())
		}
	}
	return b.String()
}
