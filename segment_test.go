package mapfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSegment_MixFolders_MergesSharedParentFolder checks the grouping key:
// after dropping the first two components, sections merge when their
// parent folder matches, whatever their file names.
func TestSegment_MixFolders_MergesSharedParentFolder(t *testing.T) {
	segment := Segment{
		Name: "main",
		Sections: []Section{
			NewSection("build/asm/foo/bar.s.o", 0x80000000, 0x10, ".text", nil, nil),
			NewSection("build/asm/foo/baz.c.o", 0x80000010, 0x10, ".text", nil, nil),
			NewSection("build/asm/qux/bar.s.o", 0x80000020, 0x10, ".text", nil, nil),
		},
	}
	segment.Sections[0].Symbols = []Symbol{NewSymbol("sym1", 0x80000000, 0x10, nil, nil)}
	segment.Sections[1].Symbols = []Symbol{NewSymbol("sym2", 0x80000010, 0x10, nil, nil)}
	segment.Sections[2].Symbols = []Symbol{NewSymbol("sym3", 0x80000020, 0x10, nil, nil)}

	mixed := segment.MixFolders()
	require.Len(t, mixed.Sections, 2)

	byFolder := make(map[string]Section)
	for _, s := range mixed.Sections {
		byFolder[s.Filepath] = s
	}

	fooBucket, ok := byFolder["foo"]
	require.True(t, ok)
	assert.Equal(t, uint64(0x20), fooBucket.Size)
	assert.Len(t, fooBucket.Symbols, 2)

	quxBucket, ok := byFolder["qux"]
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), quxBucket.Size)
	assert.Len(t, quxBucket.Symbols, 1)
}

func TestSegment_FilterBySectionType(t *testing.T) {
	segment := Segment{
		Name: "main",
		Sections: []Section{
			NewSection("a.o", 0, 0x10, ".text", nil, nil),
			NewSection("b.o", 0, 0x10, ".data", nil, nil),
		},
	}

	text := segment.FilterBySectionType(".text")
	require.Len(t, text.Sections, 1)
	assert.Equal(t, "a.o", text.Sections[0].Filepath)

	rest := segment.GetEverySectionExceptSectionType(".text")
	require.Len(t, rest.Sections, 1)
	assert.Equal(t, "b.o", rest.Sections[0].Filepath)
}

func TestSegment_IsPlaceholder(t *testing.T) {
	assert.True(t, newPlaceholderSegment().IsPlaceholder())

	named := newPlaceholderSegment()
	named.Name = ".text"
	assert.False(t, named.IsPlaceholder())
}
