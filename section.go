package mapfile

import (
	"fmt"
	"path"
	"strings"
)

// Section is one (input-object-path, section-type) slice of a segment: a
// VRAM range with an ordered list of symbols.
//
// Identity is the pair (Filepath, SectionType).
type Section struct {
	// Filepath of the input object that contributed this section, e.g.
	// "asm/non_matchings/code/foo.s.o" or a synthesized fill filepath.
	Filepath string

	// Vram is the start address of the section.
	Vram uint64

	// Size of the section in bytes.
	Size uint64

	// SectionType is the section's kind, e.g. ".text", ".data", ".bss".
	SectionType string

	// Vrom is the offset within the final ROM/image where the section's
	// bytes live. Unset for noload sections.
	Vrom *uint64

	// Align is the section's alignment, when the map file reports one.
	Align *uint64

	// IsFill marks a synthesized linker-pad pseudo-section.
	IsFill bool

	// Symbols in strictly nondecreasing VRAM order.
	Symbols []Symbol
}

// NewSection creates a section with an empty symbol list.
func NewSection(filepath string, vram, size uint64, sectionType string, vrom, align *uint64) Section {
	return Section{Filepath: filepath, Vram: vram, Size: size, SectionType: sectionType, Vrom: vrom, Align: align}
}

func newDefaultSection(filepath string, vram, size uint64, sectionType string) Section {
	return Section{Filepath: filepath, Vram: vram, Size: size, SectionType: sectionType}
}

// newPlaceholderSection returns the sentinel section used to seed the first
// segment of every temporary parse list, so dialect parsers never need
// conditional-on-first-line code.
func newPlaceholderSection() Section {
	return Section{}
}

func newFillSection(filepath string, vram, size uint64, sectionType string) Section {
	return Section{Filepath: filepath, Vram: vram, Size: size, SectionType: sectionType, IsFill: true}
}

// IsPlaceholder reports whether this is the sentinel placeholder section;
// no placeholder is ever observable once post-processing has run.
func (s Section) IsPlaceholder() bool {
	return s.Filepath == "" && s.Vram == 0 && s.Size == 0 && s.SectionType == "" &&
		s.Vrom == nil && s.Align == nil && len(s.Symbols) == 0
}

// IsNoloadSection reports whether this section occupies VRAM but no file
// bytes (BSS-like).
func (s Section) IsNoloadSection() bool {
	return isNoloadSection(s.SectionType)
}

// FindSymbolByName returns the first symbol with the given name, if any.
func (s *Section) FindSymbolByName(name string) *Symbol {
	for i := range s.Symbols {
		if s.Symbols[i].Name == name {
			return &s.Symbols[i]
		}
	}
	return nil
}

// FindSymbolAndIndexByName is FindSymbolByName plus the symbol's index,
// used by the .NON_MATCHING fixup to mutate the sibling in place.
func (s *Section) FindSymbolAndIndexByName(name string) (*Symbol, int) {
	for i := range s.Symbols {
		if s.Symbols[i].Name == name {
			return &s.Symbols[i], i
		}
	}
	return nil, -1
}

// FindSymbolByVram returns the symbol at address, or else the last symbol
// below address when its range [Vram, Vram+Size) contains it, together
// with the byte offset into that symbol (0 for an exact hit).
func (s *Section) FindSymbolByVram(address uint64) (*Symbol, int64, bool) {
	var prev *Symbol

	for i := range s.Symbols {
		sym := &s.Symbols[i]
		if sym.Vram == address {
			return sym, 0, true
		}

		if prev != nil && sym.Vram > address {
			offset := int64(address) - int64(prev.Vram)
			if offset < 0 || prev.Vram+prev.Size <= address {
				return nil, 0, false
			}
			return prev, offset, true
		}

		prev = sym
	}

	if prev != nil && prev.Vram+prev.Size > address {
		offset := int64(address) - int64(prev.Vram)
		if offset < 0 {
			return nil, 0, false
		}
		return prev, offset, true
	}

	return nil, 0, false
}

// FindSymbolByVrom is the VROM-based symmetric counterpart of
// FindSymbolByVram; symbols lacking a VROM are skipped.
func (s *Section) FindSymbolByVrom(address uint64) (*Symbol, int64, bool) {
	var prev *Symbol

	for i := range s.Symbols {
		sym := &s.Symbols[i]
		if sym.Vrom == nil {
			continue
		}
		if sym.Vrom != nil && *sym.Vrom == address {
			return sym, 0, true
		}

		if prev != nil && sym.Vrom != nil && *sym.Vrom > address && prev.Vrom != nil {
			offset := int64(address) - int64(*prev.Vrom)
			if offset < 0 || *prev.Vrom+prev.Size <= address {
				return nil, 0, false
			}
			return prev, offset, true
		}

		prev = sym
	}

	if prev != nil && prev.Vrom != nil && *prev.Vrom+prev.Size > address {
		offset := int64(address) - int64(*prev.Vrom)
		if offset < 0 {
			return nil, 0, false
		}
		return prev, offset, true
	}

	return nil, 0, false
}

// ToCSVSectionHeader is the CSV header for a list of sections.
func ToCSVSectionHeader(printVram bool) string {
	var b strings.Builder
	if printVram {
		b.WriteString("VRAM,")
	}
	b.WriteString("File,Section type,Num symbols,Max size,Total size,Average size")
	return b.String()
}

// ToCSV formats the section as one CSV row, per-symbol stats included.
func (s Section) ToCSV(printVram bool) string {
	var b strings.Builder

	symCount := uint64(len(s.Symbols))
	var maxSize uint64
	for _, sym := range s.Symbols {
		if sym.Size > maxSize {
			maxSize = sym.Size
		}
	}
	var averageSize float64
	if symCount > 0 {
		averageSize = float64(s.Size) / float64(symCount)
	} else {
		averageSize = float64(s.Size)
	}

	if printVram {
		fmt.Fprintf(&b, "%08X,", s.Vram)
	}
	fmt.Fprintf(&b, "%s,%s,%d,%d,%d,%0.2f", s.Filepath, s.SectionType, symCount, maxSize, s.Size, averageSize)
	return b.String()
}

// PathDecompSettings configures decompilation-state classification (see
// SymbolMatchStateIter and MapFile.GetProgress).
type PathDecompSettings struct {
	// AsmPath is the root of the reference asm tree.
	AsmPath string
	// PathIndex is the number of leading path components to strip from a
	// section's filepath before looking it up under AsmPath/Nonmatchings.
	PathIndex int
	// Nonmatchings is the root of the per-function non-matching asm tree,
	// or empty to skip the per-function existence check.
	Nonmatchings string

	// fileExists is overridable by tests; defaults to checking the real
	// filesystem.
	fileExists func(string) bool
}

func (p *PathDecompSettings) exists(pathStr string) bool {
	if p.fileExists != nil {
		return p.fileExists(pathStr)
	}
	return defaultFileExists(pathStr)
}

// SymbolMatchStateIter returns a finite, non-restartable sequence of one
// decomp state per non-placeholder, non-".NON_MATCHING" symbol in the
// section. Re-invoke to iterate again.
func (s *Section) SymbolMatchStateIter(settings *PathDecompSettings) *SymbolDecompStateIter {
	wholeFileUndecomped := false
	functionsPath := ""
	hasFunctionsPath := false

	if settings != nil {
		strippedPath := skipComponents(s.Filepath, settings.PathIndex)
		extensionless := withoutExtension(strippedPath)
		fullAsmFile := path.Join(settings.AsmPath, extensionless+".s")
		wholeFileUndecomped = settings.exists(fullAsmFile)

		if settings.Nonmatchings != "" {
			functionsPath = path.Join(settings.Nonmatchings, extensionless)
			hasFunctionsPath = true
		}
	}

	return newSymbolDecompStateIter(s, wholeFileUndecomped, functionsPath, hasFunctionsPath, settings)
}
