package mapfile

import (
	"fmt"
	"path"
)

// ReportVersion is the schema version stamped into every Report.
const ReportVersion = 1

// bannedReportSectionTypes are excluded from report generation entirely:
// debug info, notes, and similar sections carry no decomp-progress meaning.
var bannedReportSectionTypes = map[string]bool{
	".comment":        true,
	".debug":          true,
	".debug_info":     true,
	".debug_abbrev":   true,
	".debug_line":     true,
	".debug_aranges":  true,
	".debug_ranges":   true,
	".debug_str":      true,
	".mdebug":         true,
	".note":           true,
	".note.GNU-stack": true,
}

func isCodeSectionType(sectionType string) bool {
	for _, prefix := range []string{".text", ".start", ".init"} {
		if len(sectionType) >= len(prefix) && sectionType[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// Measures is the set of aggregate counters attached to a report unit,
// category, or the report root, following the objdiff report schema.
type Measures struct {
	FuzzyMatchPercent float32 `json:"fuzzy_match_percent"`

	TotalCode          uint64  `json:"total_code"`
	MatchedCode        uint64  `json:"matched_code"`
	MatchedCodePercent float32 `json:"matched_code_percent"`

	TotalData          uint64  `json:"total_data"`
	MatchedData        uint64  `json:"matched_data"`
	MatchedDataPercent float32 `json:"matched_data_percent"`

	TotalFunctions          uint64  `json:"total_functions"`
	MatchedFunctions        uint64  `json:"matched_functions"`
	MatchedFunctionsPercent float32 `json:"matched_functions_percent"`

	CompleteCode        uint64  `json:"complete_code"`
	CompleteCodePercent float32 `json:"complete_code_percent"`
	CompleteData        uint64  `json:"complete_data"`
	CompleteDataPercent float32 `json:"complete_data_percent"`

	TotalUnits    uint32 `json:"total_units"`
	CompleteUnits uint32 `json:"complete_units"`
}

// ReportItemMetadata annotates a single ReportItem.
type ReportItemMetadata struct {
	DemangledName  *string `json:"demangled_name"`
	VirtualAddress *uint64 `json:"virtual_address"`
}

// ReportItem is one section or function row within a ReportUnit.
type ReportItem struct {
	Name              string              `json:"name"`
	Size              uint64              `json:"size"`
	FuzzyMatchPercent float32             `json:"fuzzy_match_percent"`
	Metadata          *ReportItemMetadata `json:"metadata,omitempty"`
	Address           *uint64             `json:"address"`
}

// ReportUnitMetadata annotates a ReportUnit with the segment it came from
// and the progress categories it counts toward.
type ReportUnitMetadata struct {
	Complete           *bool    `json:"complete"`
	ModuleName         *string  `json:"module_name"`
	ModuleID           *uint32  `json:"module_id"`
	SourcePath         *string  `json:"source_path"`
	ProgressCategories []string `json:"progress_categories"`
	AutoGenerated      *bool    `json:"auto_generated"`
}

// ReportUnit is one object file's contribution to a Report: its section
// summaries, its decomposed function rows (code sections only), and the
// measures rolled up from both.
type ReportUnit struct {
	Name      string              `json:"name"`
	Measures  *Measures           `json:"measures,omitempty"`
	Sections  []ReportItem        `json:"sections"`
	Functions []ReportItem        `json:"functions"`
	Metadata  *ReportUnitMetadata `json:"metadata,omitempty"`
}

// ReportCategory is one named grouping of units (e.g. by top-level folder),
// with its own rolled-up measures.
type ReportCategory struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Measures *Measures `json:"measures,omitempty"`
}

// Report is the root objdiff-style progress document produced by
// MapFile.GetObjdiffReport.
type Report struct {
	Measures   *Measures        `json:"measures,omitempty"`
	Units      []ReportUnit     `json:"units"`
	Version    int              `json:"version"`
	Categories []ReportCategory `json:"categories"`
}

// GetObjdiffReport builds an objdiff-style progress report across every
// section of the map: one ReportUnit per distinct object filepath (sections
// sharing a path, e.g. .text and .data from the same .o, merge into one
// unit), measures rolled up per unit and at the report root, and one
// ReportCategory per distinct top-level grouping key observed.
func (m *MapFile) GetObjdiffReport(settings *PathDecompSettings) *Report {
	pathIndex := 0
	if settings != nil {
		pathIndex = settings.PathIndex
	}

	var units []ReportUnit
	unitIndex := make(map[string]int)
	categorySeen := make(map[string]bool)
	var categoryOrder []string

	for segmentIndex := range m.Segments {
		segment := &m.Segments[segmentIndex]
		for j := range segment.Sections {
			section := &segment.Sections[j]
			if bannedReportSectionTypes[section.SectionType] {
				continue
			}

			sectionPath := section.Filepath
			newUnit := reportFromSection(section, settings)

			if idx, ok := unitIndex[sectionPath]; ok {
				existing := &units[idx]
				existing.Measures = mergeMeasures(existing.Measures, newUnit.Measures)
				existing.Sections = append(existing.Sections, newUnit.Sections...)
				existing.Functions = append(existing.Functions, newUnit.Functions...)
				continue
			}

			components := pathComponents(sectionPath)
			var cat string
			if pathIndex < len(components) {
				cat = components[pathIndex]
			} else if len(components) > 0 {
				cat = components[len(components)-1]
			}

			moduleName := segment.Name
			moduleID := uint32(segmentIndex)
			srcPath := sectionPath
			newUnit.Metadata = &ReportUnitMetadata{
				ModuleName:         &moduleName,
				ModuleID:           &moduleID,
				SourcePath:         &srcPath,
				ProgressCategories: []string{cat},
			}

			if !categorySeen[cat] {
				categorySeen[cat] = true
				categoryOrder = append(categoryOrder, cat)
			}

			unitIndex[sectionPath] = len(units)
			units = append(units, newUnit)
		}
	}

	for i := range units {
		if units[i].Measures == nil {
			continue
		}
		finishMeasuresPercentages(units[i].Measures)
	}

	rootMeasures := &Measures{}
	for i := range units {
		if units[i].Measures != nil {
			addMeasures(rootMeasures, units[i].Measures)
		}
	}
	finishMeasuresPercentages(rootMeasures)
	rootMeasures.FuzzyMatchPercent = rootMeasures.MatchedCodePercent

	categories := make([]ReportCategory, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		categories = append(categories, ReportCategory{ID: cat, Name: cat, Measures: &Measures{}})
	}

	report := &Report{
		Measures:   rootMeasures,
		Units:      units,
		Version:    ReportVersion,
		Categories: categories,
	}
	report.calculateProgressCategories(units)

	return report
}

// calculateProgressCategories rolls up every unit's measures into the
// categories it's tagged with.
func (r *Report) calculateProgressCategories(units []ReportUnit) {
	byID := make(map[string]*Measures, len(r.Categories))
	for i := range r.Categories {
		byID[r.Categories[i].ID] = r.Categories[i].Measures
	}

	for _, unit := range units {
		if unit.Measures == nil || unit.Metadata == nil {
			continue
		}
		for _, cat := range unit.Metadata.ProgressCategories {
			if measures, ok := byID[cat]; ok {
				addMeasures(measures, unit.Measures)
			}
		}
	}

	for i := range r.Categories {
		finishMeasuresPercentages(r.Categories[i].Measures)
	}
}

func reportFromSection(section *Section, settings *PathDecompSettings) ReportUnit {
	measures := &Measures{}
	isText := isCodeSectionType(section.SectionType)

	var functions []ReportItem

	it := section.SymbolMatchStateIter(settings)
	first := true
	for {
		state, ok := it.Next()
		if !ok {
			break
		}
		sym := state.Symbol

		if first {
			first = false
			if isText && sym.Vram > section.Vram {
				gap := sym.Vram - section.Vram
				vaddr := section.Vram
				measures.TotalCode += gap
				measures.TotalFunctions++
				functions = append(functions, ReportItem{
					Name:    fmt.Sprintf("$_static_symbol_%08X_%s", section.Vram, path.Base(section.Filepath)),
					Size:    gap,
					Address: &vaddr,
					Metadata: &ReportItemMetadata{
						VirtualAddress: &vaddr,
					},
				})
			}
		}

		fuzzyMatchPercent := float32(0)

		if state.State == Decomped {
			if isText {
				measures.MatchedCode += sym.Size
				measures.MatchedFunctions++
				fuzzyMatchPercent = 100.0
			} else {
				measures.MatchedData += sym.Size
			}
		}

		if isText {
			measures.TotalCode += sym.Size
			measures.TotalFunctions++

			vaddr := sym.Vram
			functions = append(functions, ReportItem{
				Name:              sym.Name,
				Size:              sym.Size,
				FuzzyMatchPercent: fuzzyMatchPercent,
				Address:           &vaddr,
				Metadata: &ReportItemMetadata{
					VirtualAddress: &vaddr,
				},
			})
		} else {
			measures.TotalData += sym.Size
		}
	}

	reportItem := reportItemFromSection(section)
	if measures.TotalCode+measures.TotalData > 0 {
		reportItem.FuzzyMatchPercent = float32(measures.MatchedCode+measures.MatchedData) /
			float32(measures.TotalCode+measures.TotalData) * 100.0
	}

	measures.TotalUnits = 1

	return ReportUnit{
		Name:      section.Filepath,
		Measures:  measures,
		Sections:  []ReportItem{reportItem},
		Functions: functions,
	}
}

func reportItemFromSection(section *Section) ReportItem {
	vaddr := section.Vram
	return ReportItem{
		Name:    section.SectionType,
		Size:    section.Size,
		Address: &vaddr,
		Metadata: &ReportItemMetadata{
			VirtualAddress: &vaddr,
		},
	}
}

func mergeMeasures(a, b *Measures) *Measures {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return &Measures{
		TotalCode:        a.TotalCode + b.TotalCode,
		MatchedCode:      a.MatchedCode + b.MatchedCode,
		TotalData:        a.TotalData + b.TotalData,
		MatchedData:      a.MatchedData + b.MatchedData,
		TotalFunctions:   a.TotalFunctions + b.TotalFunctions,
		MatchedFunctions: a.MatchedFunctions + b.MatchedFunctions,
		TotalUnits:       1,
	}
}

func addMeasures(dst, src *Measures) {
	dst.TotalCode += src.TotalCode
	dst.MatchedCode += src.MatchedCode
	dst.TotalData += src.TotalData
	dst.MatchedData += src.MatchedData
	dst.TotalFunctions += src.TotalFunctions
	dst.MatchedFunctions += src.MatchedFunctions
	dst.CompleteCode += src.CompleteCode
	dst.CompleteData += src.CompleteData
	dst.TotalUnits += src.TotalUnits
	dst.CompleteUnits += src.CompleteUnits
}

func finishMeasuresPercentages(m *Measures) {
	if m.TotalCode > 0 {
		m.MatchedCodePercent = float32(m.MatchedCode) / float32(m.TotalCode) * 100.0
	}
	if m.TotalData > 0 {
		m.MatchedDataPercent = float32(m.MatchedData) / float32(m.TotalData) * 100.0
	}
	if m.TotalFunctions > 0 {
		m.MatchedFunctionsPercent = float32(m.MatchedFunctions) / float32(m.TotalFunctions) * 100.0
	}
	total := m.TotalCode + m.TotalData
	if total > 0 {
		m.FuzzyMatchPercent = float32(m.MatchedCode+m.MatchedData) / float32(total) * 100.0
	}
}
