// Package mapfile provides access to linker map files produced by GNU ld,
// LLVM ld.lld and Metrowerks mwld, lifting their text into a queryable
// model of the final memory layout of a program.
package mapfile

import "fmt"

// Symbol is a named address within a section.
//
// Identity is the pair (Name, Vram); two symbols with the same name at
// different addresses (e.g. static locals reused across translation units)
// are distinct.
type Symbol struct {
	// Name of the symbol, as it appears in the map file. A trailing
	// ".NON_MATCHING" suffix marks a decomp placeholder for a hand-written
	// non-matching counterpart; such pairs are folded together by the
	// post-processor (see fixupNonMatchingSymbols).
	Name string

	// Vram is the virtual memory address assigned to the symbol.
	Vram uint64

	// Size in bytes. Zero until the post-processing pass computes it from
	// neighboring symbols and the owning section's size.
	Size uint64

	// Vrom is the offset within the final ROM/image where the symbol's
	// bytes live. Unset for symbols inside a noload section.
	Vrom *uint64

	// Align is the symbol's alignment, when the map file reports one.
	Align *uint64

	// NonmatchingSymExists records that a sibling "<Name>.NON_MATCHING"
	// symbol existed at the same address; such symbols are always reported
	// as undecompiled regardless of asm-tree lookups.
	NonmatchingSymExists bool
}

// NewSymbol creates a symbol with every field set explicitly.
func NewSymbol(name string, vram, size uint64, vrom, align *uint64) Symbol {
	return Symbol{Name: name, Vram: vram, Size: size, Vrom: vrom, Align: align}
}

// newDefaultSymbol creates a symbol as initially seen on a map-file line,
// before the post-processing pass fills in Size/Vrom.
func newDefaultSymbol(name string, vram uint64) Symbol {
	return Symbol{Name: name, Vram: vram}
}

// GetVramStr formats the VRAM as "0xXXXXXXXX".
func (s Symbol) GetVramStr() string {
	return fmt.Sprintf("0x%08X", s.Vram)
}

// GetSizeStr formats the size, or "None" if it has not been computed yet.
func (s Symbol) GetSizeStr() string {
	if s.Size == 0 {
		return "None"
	}
	return fmt.Sprintf("%d", s.Size)
}

// GetVromStr formats the VROM as "0xXXXXXX", or "None" if unset.
func (s Symbol) GetVromStr() string {
	if s.Vrom == nil {
		return "None"
	}
	return fmt.Sprintf("0x%06X", *s.Vrom)
}

// GetAlignStr formats the alignment, or "None" if unset.
func (s Symbol) GetAlignStr() string {
	if s.Align == nil {
		return "None"
	}
	return fmt.Sprintf("0x%X", *s.Align)
}

// ToCSVSymbolHeader is the CSV header for a list of symbols, minus the
// "Section" column prepended by callers that print across sections.
func ToCSVSymbolHeader() string {
	return "Symbol name,VRAM,Size in bytes"
}

// ToCSV formats the symbol as one CSV row: "name,VRAM,size".
func (s Symbol) ToCSV() string {
	return fmt.Sprintf("%s,%08X,%s", s.Name, s.Vram, s.GetSizeStr())
}
