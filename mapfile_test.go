package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSimpleMap constructs a one-segment, one-section, two-symbol map
// directly (bypassing the text parser) for tests that only care about
// MapFile-level query behavior.
func buildSimpleMap(funcBVram uint64) *MapFile {
	vrom := uint64(0x1000)
	section := NewSection("foo.o", 0x80000000, 0x20, ".text", &vrom, nil)
	section.Symbols = []Symbol{
		NewSymbol("funcA", 0x80000000, 0x10, &vrom, nil),
		NewSymbol("funcB", funcBVram, 0x10, &vrom, nil),
	}
	segment := NewSegment(".text", 0x80000000, 0x20, &vrom, nil)
	segment.Sections = []Section{section}
	return &MapFile{Segments: []Segment{segment}}
}

func TestMapFile_FindSymbolByName(t *testing.T) {
	m := buildSimpleMap(0x80000010)

	found := m.FindSymbolByName("funcB")
	require.NotNil(t, found)
	assert.Equal(t, uint64(0x80000010), found.Symbol.Vram)
	assert.Equal(t, "foo.o", found.Section.Filepath)

	assert.Nil(t, m.FindSymbolByName("doesNotExist"))
}

func TestMapFile_FindSymbolByVram(t *testing.T) {
	m := buildSimpleMap(0x80000010)

	found, possible := m.FindSymbolByVram(0x80000010)
	require.NotNil(t, found)
	assert.Nil(t, possible)
	assert.Equal(t, "funcB", found.Symbol.Name)
	assert.Equal(t, int64(0), found.Offset)

	found, possible = m.FindSymbolByVram(0x80000018)
	require.NotNil(t, found)
	assert.Equal(t, "funcB", found.Symbol.Name)
	assert.Equal(t, int64(8), found.Offset)

	found, possible = m.FindSymbolByVram(0x90000000)
	assert.Nil(t, found)
	assert.Nil(t, possible)
}

// TestMapFile_FindLowestDifferingSymbol covers scenario S5: funcB differs
// in address between two otherwise-identical maps, and the lookup must
// also surface funcA as the preceding symbol.
func TestMapFile_FindLowestDifferingSymbol(t *testing.T) {
	built := buildSimpleMap(0x80000010)
	expected := buildSimpleMap(0x80000014)

	sym, section, prev := built.FindLowestDifferingSymbol(expected)
	require.NotNil(t, sym)
	require.NotNil(t, section)
	require.NotNil(t, prev)

	assert.Equal(t, "funcB", sym.Name)
	assert.Equal(t, "funcA", prev.Name)
	assert.Equal(t, "foo.o", section.Filepath)
}

func TestMapFile_FindLowestDifferingSymbol_NoneDiffer(t *testing.T) {
	built := buildSimpleMap(0x80000010)
	expected := buildSimpleMap(0x80000010)

	sym, section, prev := built.FindLowestDifferingSymbol(expected)
	assert.Nil(t, sym)
	assert.Nil(t, section)
	assert.Nil(t, prev)
}

// TestMapFile_CompareFilesAndSymbols_SelfIsClean covers invariant 6:
// comparing a map against itself produces no bad sections and every diff
// is zero.
func TestMapFile_CompareFilesAndSymbols_SelfIsClean(t *testing.T) {
	m := buildSimpleMap(0x80000010)

	info := m.CompareFilesAndSymbols(m, true)
	assert.Empty(t, info.BadSections)
	assert.Empty(t, info.MissingSections)

	for _, comp := range info.ComparedList {
		diff := comp.Diff()
		require.NotNil(t, diff)
		assert.Zero(t, *diff)
	}
}

func TestMapFile_CompareFilesAndSymbols_DetectsDrift(t *testing.T) {
	built := buildSimpleMap(0x80000010)
	expected := buildSimpleMap(0x80000014)

	info := built.CompareFilesAndSymbols(expected, false)
	assert.NotEmpty(t, info.BadSections)

	var sawDrift bool
	for _, comp := range info.ComparedList {
		if comp.Symbol.Name == "funcB" {
			diff := comp.Diff()
			require.NotNil(t, diff)
			assert.NotZero(t, *diff)
			sawDrift = true
		}
	}
	assert.True(t, sawDrift)
}

func TestMapFile_ToCSV(t *testing.T) {
	m := buildSimpleMap(0x80000010)
	out := m.ToCSV(false, false)
	assert.Contains(t, out, "File,Section type,Num symbols,Max size,Total size,Average size")
	assert.Contains(t, out, "foo.o,.text,2,")
}

func TestMapFile_ToCSVSymbols(t *testing.T) {
	m := buildSimpleMap(0x80000010)
	out := m.ToCSVSymbols()
	assert.Contains(t, out, "Section,Symbol name,VRAM,Size in bytes")
	assert.Contains(t, out, "foo.o,funcA,80000000,16")
}
