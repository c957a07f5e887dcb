package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLLD_SegmentSectionSymbol exercises the basic per-row dispatch:
// a segment row, a section-data row, and a symbol row.
func TestParseLLD_SegmentSectionSymbol(t *testing.T) {
	input := "00000000 00001000 00002000 00000010 .text\n" +
		"00000000 00001000 00000010 00000004  foo.o:(.text)\n" +
		"00000000 00001000 00000010 00000004   funcA\n"

	m := ParseLLDString(input)
	require.Len(t, m.Segments, 1)

	segment := m.Segments[0]
	assert.Equal(t, ".text", segment.Name)
	assert.Equal(t, uint64(0x2000), segment.Size)
	require.NotNil(t, segment.Vrom)
	assert.Equal(t, uint64(0x1000), *segment.Vrom)

	require.Len(t, segment.Sections, 1)
	section := segment.Sections[0]
	assert.Equal(t, "foo.o", section.Filepath)
	assert.Equal(t, ".text", section.SectionType)

	require.Len(t, section.Symbols, 1)
	assert.Equal(t, "funcA", section.Symbols[0].Name)
	assert.Equal(t, uint64(0x10), section.Symbols[0].Size)
}

// TestParseLLD_Fill covers scenario S4: a ". += 0x8" pad row between two
// sections synthesizes an is_fill section named after the previous
// section's file with "__fill__" appended.
func TestParseLLD_Fill(t *testing.T) {
	input := "00000000 00001000 00002000 00000010 .text\n" +
		"00000000 00001000 00000010 00000004  foo.o:(.text)\n" +
		"00000000 00001000 00000010 00000004   funcA\n" +
		"00000010 00001010 00000008 00000004     . += 0x8\n" +
		"00000018 00001018 00000008 00000004  bar.o:(.text)\n" +
		"00000018 00001018 00000008 00000004   funcB\n"

	m := ParseLLDString(input)
	require.Len(t, m.Segments, 1)
	sections := m.Segments[0].Sections
	require.Len(t, sections, 3)

	fill := sections[1]
	assert.True(t, fill.IsFill)
	assert.Equal(t, "foo.o__fill__", fill.Filepath)
	assert.Equal(t, uint64(0x8), fill.Size)
	assert.Equal(t, uint64(0x10), fill.Vram)
	require.NotNil(t, fill.Vrom)
	assert.Equal(t, uint64(0x1010), *fill.Vrom)
	assert.Equal(t, ".text", fill.SectionType)

	assert.Equal(t, "bar.o", sections[2].Filepath)
}

// TestParseLLD_SizelessSymbolTakesGapFromNext asserts that a symbol whose
// own row reports a zero size is backfilled from the distance to the next
// symbol's VRAM (the last one from the section's remaining size), same as
// the GNU dialect's size computation.
func TestParseLLD_SizelessSymbolTakesGapFromNext(t *testing.T) {
	input := "00000000 00001000 00002000 00000010 .text\n" +
		"00000000 00001000 00000020 00000004  foo.o:(.text)\n" +
		"00000000 00001000 00000000 00000004   funcA\n" +
		"00000010 00001010 00000000 00000004   funcB\n"

	m := ParseLLDString(input)
	section := m.Segments[0].Sections[0]
	require.Len(t, section.Symbols, 2)
	assert.Equal(t, uint64(0x10), section.Symbols[0].Size)
	assert.Equal(t, uint64(0x10), section.Symbols[1].Size)
}

func TestParseLLD_HeaderRegexpDetectsDialect(t *testing.T) {
	assert.True(t, lldHeaderRegexp.MatchString("        VMA              LMA     Size Align Out     In      Symbol"))
	assert.False(t, lldHeaderRegexp.MatchString(".text 0x80000000 0x1000"))
}
