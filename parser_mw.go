package mapfile

import (
	"regexp"
	"strings"
)

var (
	mwRowEntryRegexp     = regexp.MustCompile(`^\s*(?P<starting>[0-9a-fA-F]+)\s+(?P<size>[0-9a-fA-F]+)\s+(?P<vram>[0-9a-fA-F]+)\s+(?P<align>[0-9a-fA-F]+)\s+(?P<subline>.+)`)
	mwSegmentEntryRegexp = regexp.MustCompile(`^(?P<name>.+) section layout$`)
	mwLabelEntryRegexp   = regexp.MustCompile(`^(?P<label>lbl_[0-9A-F]{8})\s+(?P<filename>.+?)\s*$`)
	mwSymbolEntryRegexp  = regexp.MustCompile(`^\s*(?P<name>[^ ]+)\s+(?P<filename>.+?)\s*$`)
	mwMemoryMapRegexp    = regexp.MustCompile(`^\s*(?P<name>[^ ]+)\s+(?P<address>[0-9a-fA-F]+)\s+(?P<size>[0-9a-fA-F]+)\s+(?P<offset>[0-9a-fA-F]+)$`)
)

// invalidMWFilename is used as the "no file seen yet" sentinel: a string
// that is not a valid filename on any OS, so the first real filename the
// parser sees never accidentally compares equal to it.
const invalidMWFilename = `invalid file <>:"/\|?*`

// ParseMWString parses the contents of a Metrowerks mwld map file.
func ParseMWString(contents string) *MapFile {
	mapData := preprocessMWMapData(contents)
	// The memory map is read from the untrimmed text, since the table may
	// sit before the first section layout block.
	memoryMap := parseMemoryMapMW(contents)

	tempSegments := []Segment{newPlaceholderSegment()}
	currentFilename := invalidMWFilename

	for _, line := range strings.Split(mapData, "\n") {
		if m := matchNamed(mwRowEntryRegexp, line); m != nil {
			starting := mustParseHex(m["starting"])
			size := mustParseHex(m["size"])
			vram := mustParseHex(m["vram"])
			align := mustParseHex(m["align"])
			subline := m["subline"]

			if mwLabelEntryRegexp.MatchString(subline) {
				// Internal label, not a real symbol; ignored.

			} else if sm := matchNamed(mwSymbolEntryRegexp, subline); sm != nil {
				filename := sm["filename"]

				if filename == currentFilename {
					symName := sm["name"]

					if !bannedSymbolNames[symName] {
						currentSegment := &tempSegments[len(tempSegments)-1]
						currentSection := &currentSegment.Sections[len(currentSegment.Sections)-1]

						newSymbol := newDefaultSymbol(symName, vram)
						if size > 0 {
							newSymbol.Size = size
						}
						if !currentSection.IsNoloadSection() && currentSegment.Vrom != nil {
							v := *currentSegment.Vrom + starting
							newSymbol.Vrom = &v
						}
						if align > 0 {
							newSymbol.Align = &align
						}

						currentSection.Symbols = append(currentSection.Symbols, newSymbol)
					}
				} else {
					currentFilename = filename

					if size > 0 {
						sectionType := sm["name"]
						filepath := filename

						currentSegment := &tempSegments[len(tempSegments)-1]

						newSection := newDefaultSection(filepath, vram, size, sectionType)
						if !isNoloadSection(sectionType) && currentSegment.Vrom != nil {
							v := *currentSegment.Vrom + starting
							newSection.Vrom = &v
						}

						currentSegment.Sections = append(currentSegment.Sections, newSection)
					}
				}
			}

		} else if m := matchNamed(mwSegmentEntryRegexp, line); m != nil {
			name := m["name"]

			var newSegment Segment
			if entry, ok := memoryMap[name]; ok {
				vrom := entry.fileOffset
				newSegment = newDefaultSegment(name, entry.startingAddress, entry.size, &vrom)
			} else {
				newSegment = newPlaceholderSegment()
				newSegment.Name = name
			}

			tempSegments = append(tempSegments, newSegment)
		}
	}

	return &MapFile{Segments: postProcessSegmentsMW(tempSegments)}
}

// preprocessMWMapData discards everything before the first "section layout"
// line (keeping that line itself, since it names the first real segment),
// when present.
func preprocessMWMapData(mapData string) string {
	idx := strings.Index(mapData, " section layout")
	if idx < 0 {
		return mapData
	}
	start := strings.LastIndexByte(mapData[:idx+1], '\n')
	if start < 0 {
		return mapData
	}
	return mapData[start+1:]
}

type mwMemoryMapEntry struct {
	startingAddress uint64
	size            uint64
	fileOffset      uint64
}

// parseMemoryMapMW scans the "Memory map:" table (bounded above by a
// following "Linker generated symbols:" marker, when present) for each
// segment's starting address, size, and file offset, keyed by name.
func parseMemoryMapMW(mapData string) map[string]mwMemoryMapEntry {
	start := strings.Index(mapData, "Memory map:")
	if start >= 0 {
		rest := mapData[start:]
		if end := strings.Index(rest, "Linker generated symbols:"); end >= 0 {
			mapData = rest[:end]
		} else {
			mapData = rest
		}
	}

	memoryMap := make(map[string]mwMemoryMapEntry)
	for _, line := range strings.Split(mapData, "\n") {
		m := matchNamed(mwMemoryMapRegexp, line)
		if m == nil {
			continue
		}
		memoryMap[m["name"]] = mwMemoryMapEntry{
			startingAddress: mustParseHex(m["address"]),
			size:            mustParseHex(m["size"]),
			fileOffset:      mustParseHex(m["offset"]),
		}
	}
	return memoryMap
}

func postProcessSegmentsMW(tempSegments []Segment) []Segment {
	segments := make([]Segment, 0, len(tempSegments))

	for i, segment := range tempSegments {
		if i == 0 && (len(segment.Sections) == 0 || segment.IsPlaceholder()) {
			continue
		}

		newSegment := segment.cloneNoSections()

		for _, section := range segment.Sections {
			if section.IsPlaceholder() {
				continue
			}

			if len(section.Symbols) > 0 {
				fixupNonMatchingSymbols(&section)
			}

			newSegment.Sections = append(newSegment.Sections, section)
		}

		segments = append(segments, newSegment)
	}

	return segments
}
