package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTwoSymbolSection() Section {
	vrom := uint64(0x1000)
	funcBVrom := uint64(0x1010)
	section := NewSection("foo.o", 0x80000000, 0x20, ".text", &vrom, nil)
	section.Symbols = []Symbol{
		NewSymbol("funcA", 0x80000000, 0x10, &vrom, nil),
		NewSymbol("funcB", 0x80000010, 0x10, &funcBVrom, nil),
	}
	return section
}

func TestSection_FindSymbolByVram(t *testing.T) {
	section := buildTwoSymbolSection()

	sym, offset, ok := section.FindSymbolByVram(0x80000010)
	require.True(t, ok)
	assert.Equal(t, "funcB", sym.Name)
	assert.Equal(t, int64(0), offset)

	sym, offset, ok = section.FindSymbolByVram(0x80000018)
	require.True(t, ok)
	assert.Equal(t, "funcB", sym.Name)
	assert.Equal(t, int64(8), offset)

	_, _, ok = section.FindSymbolByVram(0x90000000)
	assert.False(t, ok)
}

func TestSection_FindSymbolByVrom(t *testing.T) {
	section := buildTwoSymbolSection()

	sym, offset, ok := section.FindSymbolByVrom(0x1010)
	require.True(t, ok)
	assert.Equal(t, "funcB", sym.Name)
	assert.Equal(t, int64(0), offset)

	sym, offset, ok = section.FindSymbolByVrom(0x1018)
	require.True(t, ok)
	assert.Equal(t, "funcB", sym.Name)
	assert.Equal(t, int64(8), offset)
}

func TestSection_SymbolMatchStateIter_SkipsNonMatchingPlaceholder(t *testing.T) {
	vrom := uint64(0x1000)
	section := NewSection("foo.o", 0x80000000, 0x20, ".text", &vrom, nil)
	section.Symbols = []Symbol{
		NewSymbol("foo.NON_MATCHING", 0x80000000, 0x0, &vrom, nil),
		NewSymbol("foo", 0x80000000, 0x20, &vrom, nil),
	}
	section.Symbols[1].NonmatchingSymExists = true

	it := section.SymbolMatchStateIter(nil)

	state, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "foo", state.Symbol.Name)
	assert.Equal(t, Undecomped, state.State)

	_, ok = it.Next()
	assert.False(t, ok)
}

func TestSection_SymbolMatchStateIter_DecompedWhenNoFlagsSet(t *testing.T) {
	section := buildTwoSymbolSection()
	it := section.SymbolMatchStateIter(nil)

	state, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, Decomped, state.State)
	assert.Equal(t, "funcA", state.Symbol.Name)
}

func TestPathDecompSettings_ExistsUsesOverride(t *testing.T) {
	settings := &PathDecompSettings{
		AsmPath:   "asm",
		PathIndex: 0,
		fileExists: func(p string) bool {
			return p == "asm/foo.s"
		},
	}

	section := buildTwoSymbolSection()
	it := section.SymbolMatchStateIter(settings)

	state, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, Undecomped, state.State)
}

func TestSection_ToCSV(t *testing.T) {
	section := buildTwoSymbolSection()
	out := section.ToCSV(true)
	assert.Contains(t, out, "80000000,")
	assert.Contains(t, out, "foo.o,.text,2,16,32,16.00")
}

func TestSection_IsNoloadSection(t *testing.T) {
	bss := newDefaultSection("foo.o", 0x80000000, 0x10, ".bss")
	assert.True(t, bss.IsNoloadSection())

	text := newDefaultSection("foo.o", 0x80000000, 0x10, ".text")
	assert.False(t, text.IsNoloadSection())
}
