package mapfile

import "fmt"

// FoundSymbolInfo is the result of a name/address lookup: the symbol, the
// section owning it, and (for address lookups) the byte offset from the
// symbol's start to the queried address.
type FoundSymbolInfo struct {
	Section *Section
	Symbol  *Symbol
	Offset  int64
}

func newFoundSymbolInfo(section *Section, symbol *Symbol, offset int64) *FoundSymbolInfo {
	return &FoundSymbolInfo{Section: section, Symbol: symbol, Offset: offset}
}

func newDefaultFoundSymbolInfo(section *Section, symbol *Symbol) *FoundSymbolInfo {
	return newFoundSymbolInfo(section, symbol, 0)
}

// GetAsStr formats the lookup result for human consumption.
func (f *FoundSymbolInfo) GetAsStr() string {
	return fmt.Sprintf("'%s' (VRAM: %s, VROM: %s, SIZE: %s, %s)",
		f.Symbol.Name, f.Symbol.GetVramStr(), f.Symbol.GetVromStr(), f.Symbol.GetSizeStr(), f.Section.Filepath)
}

// GetAsStrPlusOffset is GetAsStr, prefixed with a description of the
// queried address's offset into the symbol when it did not land exactly on
// the symbol's start.
func (f *FoundSymbolInfo) GetAsStrPlusOffset(queriedName string) string {
	var message string

	if f.Offset != 0 {
		if queriedName != "" {
			message = queriedName
		} else {
			message = fmt.Sprintf("0x%X", int64(f.Symbol.Vram)+f.Offset)
		}
		message = fmt.Sprintf("%s is at 0x%X bytes inside", message, f.Offset)
	} else {
		message = "Symbol"
	}

	return fmt.Sprintf("%s %s", message, f.GetAsStr())
}
