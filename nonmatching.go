package mapfile

import "strings"

// fixupNonMatchingSymbols repairs ".NON_MATCHING" placeholder pairs within
// a single section (see spec §4.5): the placeholder and its real
// counterpart share an address, but the map's emission order is not
// guaranteed, so whichever ended up with a nonzero size may be the wrong
// one. We zero the placeholder, move its size onto the real symbol (taking
// the max of the two, since exactly one is expected to be nonzero), and
// mark the real symbol as having a non-matching counterpart.
func fixupNonMatchingSymbols(section *Section) {
	type fixup struct {
		index   int
		newSize uint64
	}

	var realFixups []fixup
	var placeholderIndices []int

	for i, sym := range section.Symbols {
		if !strings.HasSuffix(sym.Name, ".NON_MATCHING") {
			continue
		}

		realName := strings.ReplaceAll(sym.Name, ".NON_MATCHING", "")
		realSym, realIndex := section.FindSymbolAndIndexByName(realName)
		if realSym == nil {
			continue
		}

		newSize := sym.Size
		if realSym.Size > newSize {
			newSize = realSym.Size
		}
		realFixups = append(realFixups, fixup{index: realIndex, newSize: newSize})
		placeholderIndices = append(placeholderIndices, i)
	}

	for _, f := range realFixups {
		section.Symbols[f.index].Size = f.newSize
		section.Symbols[f.index].NonmatchingSymExists = true
	}
	for _, i := range placeholderIndices {
		section.Symbols[i].Size = 0
	}
}
