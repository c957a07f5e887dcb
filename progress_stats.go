package mapfile

import "fmt"

// ProgressStats accumulates decompiled vs. undecompiled byte counts, either
// globally or per top-level folder (see MapFile.GetProgress).
type ProgressStats struct {
	UndecompedSize int
	DecompedSize   int
}

// Total is the sum of decomped and undecomped sizes.
func (p ProgressStats) Total() int {
	return p.UndecompedSize + p.DecompedSize
}

// UndecompedPercentage is the undecomped fraction of this stat's own total.
func (p ProgressStats) UndecompedPercentage() float32 {
	return float32(p.UndecompedSize) / float32(p.Total()) * 100.0
}

// DecompedPercentage is the decomped fraction of this stat's own total.
func (p ProgressStats) DecompedPercentage() float32 {
	return float32(p.DecompedSize) / float32(p.Total()) * 100.0
}

// UndecompedPercentageTotal is the undecomped fraction of total's total.
func (p ProgressStats) UndecompedPercentageTotal(total ProgressStats) float32 {
	return float32(p.UndecompedSize) / float32(total.Total()) * 100.0
}

// DecompedPercentageTotal is the decomped fraction of total's total.
func (p ProgressStats) DecompedPercentageTotal(total ProgressStats) float32 {
	return float32(p.DecompedSize) / float32(total.Total()) * 100.0
}

// GetAsProgressEntry renders this stat as a "github-style" progress badge
// entry: {name: decompedSize, "name/total": total}.
func (p ProgressStats) GetAsProgressEntry(name string) map[string]int {
	return map[string]int{
		name:                       p.DecompedSize,
		fmt.Sprintf("%s/total", name): p.Total(),
	}
}

// GetHeaderAsStr formats the column header for a progress table.
func GetHeaderAsStr(categoryColumnSize int) string {
	return fmt.Sprintf("%-*s: %12s / %8s %10s%%  (%20s%%)", categoryColumnSize,
		"Category", "DecompedSize", "Total", "OfFolder", "OfTotal")
}

// GetEntryAsStr formats one row of a progress table.
func (p ProgressStats) GetEntryAsStr(category string, total ProgressStats, categoryColumnSize int) string {
	return fmt.Sprintf("%-*s: %12d / %8d %10.4f%%  (%8.4f%% / %8.4f%%)", categoryColumnSize,
		category, p.DecompedSize, p.Total(), p.DecompedPercentage(),
		p.DecompedPercentageTotal(total), float32(p.Total())/float32(total.Total())*100.0)
}
