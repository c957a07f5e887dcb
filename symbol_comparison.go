package mapfile

import "math"

// noAddress marks a SymbolComparisonInfo side that has no counterpart in
// the other map file, mirroring the original's use of u64::MAX as a
// sentinel "no address" value.
const noAddress = math.MaxUint64

// SymbolComparisonInfo is one entry of a MapsComparisonInfo: a symbol from
// the "build" map file, and where it was (or was not) found in the
// "expected" map file.
type SymbolComparisonInfo struct {
	Symbol *Symbol

	BuildAddress uint64
	BuildSection *Section

	ExpectedAddress uint64
	ExpectedSection *Section
}

func newSymbolComparisonInfo(symbol *Symbol, buildAddress uint64, buildSection *Section, expectedAddress uint64, expectedSection *Section) SymbolComparisonInfo {
	return SymbolComparisonInfo{
		Symbol:          symbol,
		BuildAddress:    buildAddress,
		BuildSection:    buildSection,
		ExpectedAddress: expectedAddress,
		ExpectedSection: expectedSection,
	}
}

// Diff returns the signed VRAM delta between the build and expected
// addresses, or nil if either side is missing. When both sides share the
// same section filepath the delta is computed between offsets within that
// section instead, to avoid cascading noise from an earlier shifted file.
func (c SymbolComparisonInfo) Diff() *int64 {
	if c.BuildAddress == noAddress || c.ExpectedAddress == noAddress {
		return nil
	}

	buildAddress := c.BuildAddress
	expectedAddress := c.ExpectedAddress

	if c.BuildSection != nil && c.ExpectedSection != nil && c.BuildSection.Filepath == c.ExpectedSection.Filepath {
		buildAddress -= c.BuildSection.Vram
		expectedAddress -= c.ExpectedSection.Vram
	}

	diff := int64(buildAddress) - int64(expectedAddress)
	return &diff
}
