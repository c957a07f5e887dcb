package mapfile

import (
	"regexp"
	"strings"
)

// lldHeaderRegexp matches the column header line emitted by clang's ld.lld,
// used by ParseString to pick this dialect.
var lldHeaderRegexp = regexp.MustCompile(`\s+VMA\s+LMA\s+Size\s+Align\s+Out\s+In\s+Symbol`)

var (
	lldRowEntryRegexp     = regexp.MustCompile(`^\s*(?P<vram>[0-9a-fA-F]+)\s+(?P<vrom>[0-9a-fA-F]+)\s+(?P<size>[0-9a-fA-F]+)\s+(?P<align>[0-9a-fA-F]+) `)
	lldSegmentEntryRegexp = regexp.MustCompile(`^(?P<name>[^\s]+)$`)
	lldFillRegexp         = regexp.MustCompile(`^\s+(?P<expr>\.\s*\+=\s*.+)$`)
	lldSectionDataRegexp  = regexp.MustCompile(`^\s+(?P<name>[^\s]+):\((?P<section>[^\s()]+)\)$`)
	lldLabelRegexp        = regexp.MustCompile(`^\s+(?P<name>\.?L[0-9A-F]{8})$`)
	lldSymbolEntryRegexp  = regexp.MustCompile(`^\s+(?P<name>[^\s]+)$`)
)

// ParseLLDString parses the contents of a clang ld.lld map file.
//
// Every non-blank line starts with the same four columns (VMA, LMA, Size,
// Align); the rest of the line is dispatched by shape to decide whether it
// names a segment, a section, a fill, or a symbol.
func ParseLLDString(contents string) *MapFile {
	tempSegments := []Segment{newPlaceholderSegment()}

	for _, line := range strings.Split(contents, "\n") {
		rowMatch := lldRowEntryRegexp.FindStringSubmatchIndex(line)
		if rowMatch == nil {
			continue
		}

		m := matchNamed(lldRowEntryRegexp, line)
		vram := mustParseHex(m["vram"])
		vrom := mustParseHex(m["vrom"])
		size := mustParseHex(m["size"])
		align := mustParseHex(m["align"])

		subline := line[rowMatch[1]:]

		if sm := matchNamed(lldSegmentEntryRegexp, subline); sm != nil {
			newSegment := newDefaultSegment(sm["name"], vram, size, &vrom)
			newSegment.Align = &align
			tempSegments = append(tempSegments, newSegment)

		} else if lldFillRegexp.MatchString(subline) {
			var filepath string
			var sectionType string

			currentSegment := &tempSegments[len(tempSegments)-1]
			if len(currentSegment.Sections) > 0 {
				prevSection := currentSegment.Sections[len(currentSegment.Sections)-1]
				filepath = fillFilepath(prevSection.Filepath)
				sectionType = prevSection.SectionType
			}

			newSection := newFillSection(filepath, vram, size, sectionType)
			if !isNoloadSection(sectionType) {
				newSection.Vrom = &vrom
			}
			currentSegment.Sections = append(currentSegment.Sections, newSection)

		} else if sm := matchNamed(lldSectionDataRegexp, subline); sm != nil {
			filepath := sm["name"]
			sectionType := sm["section"]

			if size > 0 {
				currentSegment := &tempSegments[len(tempSegments)-1]

				newSection := newDefaultSection(filepath, vram, size, sectionType)
				if !isNoloadSection(sectionType) {
					newSection.Vrom = &vrom
				}
				newSection.Align = &align

				currentSegment.Sections = append(currentSegment.Sections, newSection)
			}

		} else if lldLabelRegexp.MatchString(subline) {
			// Internal assembler label, not a real symbol; ignored.

		} else if sm := matchNamed(lldSymbolEntryRegexp, subline); sm != nil {
			name := sm["name"]

			if !bannedSymbolNames[name] {
				currentSegment := &tempSegments[len(tempSegments)-1]
				currentSection := &currentSegment.Sections[len(currentSegment.Sections)-1]

				newSymbol := newDefaultSymbol(name, vram)
				if size > 0 {
					newSymbol.Size = size
				}
				if !currentSection.IsNoloadSection() {
					newSymbol.Vrom = &vrom
				}
				newSymbol.Align = &align

				currentSection.Symbols = append(currentSection.Symbols, newSymbol)
			}
		}
	}

	return &MapFile{Segments: postProcessSegmentsLLD(tempSegments)}
}

func postProcessSegmentsLLD(tempSegments []Segment) []Segment {
	segments := make([]Segment, 0, len(tempSegments))

	for i, segment := range tempSegments {
		if i == 0 && segment.IsPlaceholder() {
			continue
		}

		newSegment := segment.cloneNoSections()

		for _, section := range segment.Sections {
			if section.IsPlaceholder() {
				continue
			}

			var accumulatedSize uint64
			symbolsCount := len(section.Symbols)

			if symbolsCount > 0 {
				// A first symbol above the section's start leaves a leading
				// gap that is not part of any symbol's size.
				accumulatedSize += section.Symbols[0].Vram - section.Vram

				for index := 0; index < symbolsCount-1; index++ {
					nextSymVram := section.Symbols[index+1].Vram
					sym := &section.Symbols[index]

					symSize := nextSymVram - sym.Vram
					accumulatedSize += symSize

					if sym.Size == 0 {
						sym.Size = symSize
					}
				}

				last := &section.Symbols[symbolsCount-1]
				if last.Size == 0 {
					last.Size = section.Size - accumulatedSize
				}

				fixupNonMatchingSymbols(&section)
			}

			newSegment.Sections = append(newSegment.Sections, section)
		}

		segments = append(segments, newSegment)
	}

	return segments
}
