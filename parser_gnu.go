package mapfile

import (
	"regexp"
	"strings"

	"github.com/mewrev/linkmap/internal/logging"
)

var (
	gnuSectionAloneRegexp = regexp.MustCompile(`^\s+(?P<section>[^*][^\s]+)\s*$`)
	gnuSectionDataRegexp  = regexp.MustCompile(`^\s+(?P<section>([^*][^\s]+)?)\s+(?P<vram>0x[^\s]+)\s+(?P<size>0x[^\s]+)\s+(?P<name>[^\s]+)$`)
	gnuFunctionRegexp     = regexp.MustCompile(`^\s+(?P<vram>0x[^\s]+)\s+(?P<name>[^\s]+)$`)
	gnuLabelRegexp        = regexp.MustCompile(`(?P<name>\.?L[0-9A-F]{8})$`)
	gnuFillRegexp         = regexp.MustCompile(`^\s+(?P<fill>\*[^\s*]+\*)\s+(?P<vram>0x[^\s]+)\s+(?P<size>0x[^\s]+)\s+(?P<fillValue>[0-9a-zA-Z]*)$`)
	gnuSegmentRegexp      = regexp.MustCompile(`(?P<name>([^\s]+)?)\s+(?P<vram>0x[^\s]+)\s+(?P<size>0x[^\s]+)\s+(?P<loadaddress>(load address)?)\s+(?P<vrom>0x[^\s]+)$`)
	gnuSegmentNoRomRegexp = regexp.MustCompile(`(?P<name>([^\s]+)?)\s+(?P<vram>0x[^\s]+)\s+(?P<size>0x[^\s]+)$`)
)

// ParseGNUString parses the contents of a GNU ld map file.
func ParseGNUString(contents string) *MapFile {
	mapData := preprocessGNUMapData(contents)

	tempSegments := []Segment{newPlaceholderSegment()}
	inSection := false
	prevLine := ""

	for _, line := range strings.Split(mapData, "\n") {
		if inSection {
			if !strings.HasPrefix(line, "        ") {
				inSection = false
			} else if !gnuLabelRegexp.MatchString(line) {
				if m := matchNamed(gnuFunctionRegexp, line); m != nil {
					symName := m["name"]
					if !bannedSymbolNames[symName] {
						symVram := mustParseHex(m["vram"])

						currentSegment := &tempSegments[len(tempSegments)-1]
						currentSection := &currentSegment.Sections[len(currentSegment.Sections)-1]
						currentSection.Symbols = append(currentSection.Symbols, newDefaultSymbol(symName, symVram))
					}
				}
			}
		}

		if !inSection {
			if m := matchNamed(gnuSectionDataRegexp, line); m != nil {
				filepath := m["name"]
				vram := mustParseHex(m["vram"])
				size := mustParseHex(m["size"])
				sectionType := m["section"]

				if size > 0 {
					if sectionType != "" {
						inSection = true
						currentSegment := &tempSegments[len(tempSegments)-1]
						currentSegment.Sections = append(currentSegment.Sections, newDefaultSection(filepath, vram, size, sectionType))
					} else if aloneMatch := matchNamed(gnuSectionAloneRegexp, prevLine); aloneMatch != nil {
						// The section name was too long and spilled onto the
						// previous line.
						inSection = true
						currentSegment := &tempSegments[len(tempSegments)-1]
						currentSegment.Sections = append(currentSegment.Sections, newDefaultSection(filepath, vram, size, aloneMatch["section"]))
					}
				}

			} else if m := matchNamed(gnuSegmentRegexp, line); m != nil {
				name := m["name"]
				vram := mustParseHex(m["vram"])
				size := mustParseHex(m["size"])
				vrom := mustParseHex(m["vrom"])

				if name == "" {
					name = prevLine
				}

				tempSegments = append(tempSegments, newDefaultSegment(name, vram, size, &vrom))
			} else if m := matchNamed(gnuSegmentNoRomRegexp, line); m != nil {
				name := m["name"]
				vram := mustParseHex(m["vram"])
				size := mustParseHex(m["size"])

				if name == "" {
					name = prevLine
				}

				tempSegments = append(tempSegments, newDefaultSegment(name, vram, size, nil))
			} else if m := matchNamed(gnuFillRegexp, line); m != nil {
				size := mustParseHex(m["size"])

				var filepath string
				var vram uint64
				var sectionType string

				currentSegment := &tempSegments[len(tempSegments)-1]
				if len(currentSegment.Sections) > 0 {
					prevSection := currentSegment.Sections[len(currentSegment.Sections)-1]
					filepath = fillFilepath(prevSection.Filepath)
					vram = prevSection.Vram + prevSection.Size
					sectionType = prevSection.SectionType
				}

				currentSegment.Sections = append(currentSegment.Sections, newFillSection(filepath, vram, size, sectionType))
			} else if line != "" {
				logging.Warn.Printf("support for line %q not yet implemented", line)
			}
		}

		prevLine = line
	}

	return &MapFile{Segments: postProcessSegmentsGNU(tempSegments)}
}

// preprocessGNUMapData discards everything up to and including the line
// after the "Linker script and memory map" marker, when present; parsing
// the whole text is still correct, just slower.
func preprocessGNUMapData(mapData string) string {
	marker := "\nLinker script and memory map"
	idx := strings.Index(mapData, marker)
	if idx < 0 {
		return mapData
	}
	rest := mapData[idx+1:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return mapData
	}
	// Also drop the line that follows the marker.
	rest = rest[nl+1:]
	nl = strings.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	return rest[nl+1:]
}

// fillFilepath synthesizes the filepath of a fill pseudo-section: the
// previous section's filepath with "__fill__" appended to its file name.
func fillFilepath(prevFilepath string) string {
	if prevFilepath == "" {
		return ""
	}
	idx := strings.LastIndexByte(prevFilepath, '/')
	dir, name := "", prevFilepath
	if idx >= 0 {
		dir, name = prevFilepath[:idx+1], prevFilepath[idx+1:]
	}
	return dir + name + "__fill__"
}

func postProcessSegmentsGNU(tempSegments []Segment) []Segment {
	segments := make([]Segment, 0, len(tempSegments))

	// Running ROM counter used when a segment doesn't declare its own VROM.
	var currentCalculatedSectionRom uint64

	for i, segment := range tempSegments {
		if i == 0 && segment.IsPlaceholder() {
			continue
		}
		if segment.Size == 0 && len(segment.Sections) == 0 {
			continue
		}

		newSegment := segment.cloneNoSections()

		var vromOffset uint64
		if segment.Vrom != nil {
			vromOffset = *segment.Vrom
			currentCalculatedSectionRom = vromOffset
		} else {
			vromOffset = currentCalculatedSectionRom
			v := vromOffset
			newSegment.Vrom = &v
		}

		for _, section := range segment.Sections {
			if section.IsPlaceholder() {
				continue
			}

			var accumulatedSize uint64
			symbolsCount := len(section.Symbols)
			isNoload := section.IsNoloadSection()

			if section.Vrom != nil {
				vromOffset = *section.Vrom
			}
			if !isNoload {
				v := vromOffset
				section.Vrom = &v
			}

			if symbolsCount > 0 {
				symVrom := vromOffset

				if first := section.Symbols[0]; true {
					symVrom = symVrom + first.Vram - section.Vram
					accumulatedSize += first.Vram - section.Vram
				}

				for index := 0; index < symbolsCount-1; index++ {
					nextSymVram := section.Symbols[index+1].Vram
					sym := &section.Symbols[index]
					symSize := nextSymVram - sym.Vram
					accumulatedSize += symSize

					sym.Size = symSize

					if !isNoload {
						v := symVrom
						sym.Vrom = &v
						symVrom += symSize
					}
				}

				last := &section.Symbols[symbolsCount-1]
				last.Size = section.Size - accumulatedSize
				if !isNoload {
					v := symVrom
					last.Vrom = &v
				}

				fixupNonMatchingSymbols(&section)
			}

			if !isNoload {
				vromOffset += section.Size
				currentCalculatedSectionRom += section.Size
			}

			newSegment.Sections = append(newSegment.Sections, section)
		}

		segments = append(segments, newSegment)
	}

	return segments
}

// matchNamed runs re against s and returns its named capture groups, or
// nil if re does not match.
func matchNamed(re *regexp.Regexp, s string) map[string]string {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = match[i]
		}
	}
	return out
}
