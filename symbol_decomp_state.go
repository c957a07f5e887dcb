package mapfile

import (
	"path"
	"strings"
)

// DecompState tags whether a SymbolDecompState entry is decompiled or not.
type DecompState int

const (
	// Decomped means the symbol has a matching, checked-in C/C++ source.
	Decomped DecompState = iota
	// Undecomped means the symbol still has a hand-written asm counterpart.
	Undecomped
)

// SymbolDecompState pairs a symbol with its classification from one
// iteration step of a SymbolDecompStateIter.
type SymbolDecompState struct {
	State  DecompState
	Symbol *Symbol
}

// SymbolDecompStateIter is a lazy, finite, non-restartable sequence of
// decomp states over a section's symbols, skipping ".NON_MATCHING"
// placeholders. Re-invoke Section.SymbolMatchStateIter to iterate again.
type SymbolDecompStateIter struct {
	section              *Section
	wholeFileIsUndecomped bool
	functionsPath        string
	hasFunctionsPath     bool
	settings             *PathDecompSettings

	index int
}

func newSymbolDecompStateIter(section *Section, wholeFileIsUndecomped bool, functionsPath string, hasFunctionsPath bool, settings *PathDecompSettings) *SymbolDecompStateIter {
	return &SymbolDecompStateIter{
		section:               section,
		wholeFileIsUndecomped: wholeFileIsUndecomped,
		functionsPath:         functionsPath,
		hasFunctionsPath:      hasFunctionsPath,
		settings:              settings,
	}
}

// Next advances the iterator, returning (state, true) or (zero, false) once
// exhausted.
func (it *SymbolDecompStateIter) Next() (SymbolDecompState, bool) {
	for it.index < len(it.section.Symbols) {
		if !strings.HasSuffix(it.section.Symbols[it.index].Name, ".NON_MATCHING") {
			break
		}
		it.index++
	}
	if it.index >= len(it.section.Symbols) {
		return SymbolDecompState{}, false
	}

	sym := &it.section.Symbols[it.index]
	it.index++

	if it.wholeFileIsUndecomped || sym.NonmatchingSymExists {
		return SymbolDecompState{State: Undecomped, Symbol: sym}, true
	}

	if it.hasFunctionsPath {
		functionFile := path.Join(it.functionsPath, sym.Name+".s")
		if it.settings.exists(functionFile) {
			return SymbolDecompState{State: Undecomped, Symbol: sym}, true
		}
	}

	return SymbolDecompState{State: Decomped, Symbol: sym}, true
}
