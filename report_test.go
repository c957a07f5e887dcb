package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildReportMap builds a two-function .text section with a leading gap
// (bytes 0x80000000-0x80000004 attributed to no symbol) and one decompiled,
// one undecompiled function.
func buildReportMap() *MapFile {
	vrom := uint64(0x1000)
	section := NewSection("asm/foo.s.o", 0x80000000, 0x20, ".text", &vrom, nil)
	section.Symbols = []Symbol{
		NewSymbol("funcA", 0x80000004, 0x10, &vrom, nil),
		NewSymbol("funcB", 0x80000014, 0x10, &vrom, nil),
	}
	section.Symbols[1].NonmatchingSymExists = true

	segment := NewSegment(".text", 0x80000000, 0x20, &vrom, nil)
	segment.Sections = []Section{section}
	return &MapFile{Segments: []Segment{segment}}
}

func TestGetObjdiffReport_StaticSymbolGapSynthesized(t *testing.T) {
	m := buildReportMap()
	report := m.GetObjdiffReport(nil)

	require.Len(t, report.Units, 1)
	unit := report.Units[0]
	require.Len(t, unit.Functions, 3)

	gapFn := unit.Functions[0]
	assert.Equal(t, uint64(0x4), gapFn.Size)
	require.NotNil(t, gapFn.Address)
	assert.Equal(t, uint64(0x80000000), *gapFn.Address)

	assert.Equal(t, "funcA", unit.Functions[1].Name)
	assert.Equal(t, "funcB", unit.Functions[2].Name)
}

func TestGetObjdiffReport_MeasuresCountMatchedAndTotalCode(t *testing.T) {
	m := buildReportMap()
	report := m.GetObjdiffReport(nil)

	unit := report.Units[0]
	require.NotNil(t, unit.Measures)
	// gap (0x4) + funcA (0x10) + funcB (0x10)
	assert.Equal(t, uint64(0x24), unit.Measures.TotalCode)
	assert.Equal(t, uint64(0x10), unit.Measures.MatchedCode)
	assert.Equal(t, uint64(3), unit.Measures.TotalFunctions)
	assert.Equal(t, uint64(1), unit.Measures.MatchedFunctions)

	require.NotNil(t, report.Measures)
	assert.Equal(t, unit.Measures.TotalCode, report.Measures.TotalCode)
	assert.Equal(t, unit.Measures.MatchedCode, report.Measures.MatchedCode)
}

func TestGetObjdiffReport_BannedSectionTypeExcluded(t *testing.T) {
	vrom := uint64(0x1000)
	section := NewSection("foo.o", 0x80000000, 0x10, ".debug_info", &vrom, nil)
	segment := NewSegment(".debug", 0x80000000, 0x10, &vrom, nil)
	segment.Sections = []Section{section}
	m := &MapFile{Segments: []Segment{segment}}

	report := m.GetObjdiffReport(nil)
	assert.Empty(t, report.Units)
}

func TestGetObjdiffReport_MergesSectionsSharingAPath(t *testing.T) {
	vrom := uint64(0x1000)
	text := NewSection("foo.o", 0x80000000, 0x10, ".text", &vrom, nil)
	text.Symbols = []Symbol{NewSymbol("funcA", 0x80000000, 0x10, &vrom, nil)}

	dataVrom := uint64(0x2000)
	data := NewSection("foo.o", 0x80001000, 0x8, ".data", &dataVrom, nil)
	data.Symbols = []Symbol{NewSymbol("gData", 0x80001000, 0x8, &dataVrom, nil)}

	segment := NewSegment("main", 0x80000000, 0x2000, &vrom, nil)
	segment.Sections = []Section{text, data}
	m := &MapFile{Segments: []Segment{segment}}

	report := m.GetObjdiffReport(nil)
	require.Len(t, report.Units, 1)
	unit := report.Units[0]
	assert.Len(t, unit.Sections, 2)
	require.NotNil(t, unit.Measures)
	assert.Equal(t, uint64(0x10), unit.Measures.TotalCode)
	assert.Equal(t, uint64(0x8), unit.Measures.TotalData)
}

func TestCalculateProgressCategories_RollsUpByCategory(t *testing.T) {
	m := buildReportMap()
	report := m.GetObjdiffReport(nil)

	require.Len(t, report.Categories, 1)
	cat := report.Categories[0]
	require.NotNil(t, cat.Measures)
	assert.Equal(t, uint64(0x24), cat.Measures.TotalCode)
	assert.Equal(t, uint64(0x10), cat.Measures.MatchedCode)
}
