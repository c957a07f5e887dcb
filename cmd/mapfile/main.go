// Command mapfile is a thin reference CLI over the mapfile library: each
// subcommand parses one or two map files and renders a view of the result.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mewrev/linkmap"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapfile",
		Short: "Inspect linker map files (GNU ld, ld.lld, mwld)",
	}

	root.AddCommand(
		dumpCmd(),
		csvSectionsCmd(),
		csvSymbolsCmd(),
		reportCmd(),
		diffCmd(),
	)
	return root
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump MAPFILE...",
		Short: "Print every symbol as an IDA set_name script",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, mapPath := range args {
				m, err := mapfile.ParseFile(mapPath)
				if err != nil {
					return err
				}
				dumpIdaScript(m)
			}
			return nil
		},
	}
}

// dumpIdaScript prints every symbol in m as an IDA set_name call, in the
// teacher's dumpIdaScript style.
func dumpIdaScript(m *mapfile.MapFile) {
	for _, segment := range m.Segments {
		for _, section := range segment.Sections {
			for _, sym := range section.Symbols {
				fmt.Printf("set_name(0x%08X, \"%s\", SN_NOWARN)\n", sym.Vram, sym.Name)
			}
		}
	}
}

func csvSectionsCmd() *cobra.Command {
	var printVram, skipWithoutSymbols bool
	cmd := &cobra.Command{
		Use:   "csv-sections MAPFILE",
		Short: "Render every section as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(m.ToCSV(printVram, skipWithoutSymbols))
			return nil
		},
	}
	cmd.Flags().BoolVar(&printVram, "print-vram", false, "include a VRAM column")
	cmd.Flags().BoolVar(&skipWithoutSymbols, "skip-without-symbols", false, "omit sections with no symbols")
	return cmd
}

func csvSymbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csv-symbols MAPFILE",
		Short: "Render every symbol as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(m.ToCSVSymbols())
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var asmPath, nonmatchings string
	var pathIndex int
	cmd := &cobra.Command{
		Use:   "report MAPFILE",
		Short: "Emit an objdiff-style JSON progress report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mapfile.ParseFile(args[0])
			if err != nil {
				return err
			}

			var settings *mapfile.PathDecompSettings
			if asmPath != "" {
				settings = &mapfile.PathDecompSettings{
					AsmPath:      asmPath,
					PathIndex:    pathIndex,
					Nonmatchings: nonmatchings,
				}
			}

			report := m.GetObjdiffReport(settings)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&asmPath, "asm-path", "", "root of the reference asm tree")
	cmd.Flags().StringVar(&nonmatchings, "nonmatchings", "", "root of the per-function non-matching asm tree")
	cmd.Flags().IntVar(&pathIndex, "path-index", 0, "number of leading path components to strip")
	return cmd
}

func diffCmd() *cobra.Command {
	var checkOtherOnSelf bool
	cmd := &cobra.Command{
		Use:   "diff BUILT EXPECTED",
		Short: "Compare symbol addresses between two map files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			built, err := mapfile.ParseFile(args[0])
			if err != nil {
				return err
			}
			expected, err := mapfile.ParseFile(args[1])
			if err != nil {
				return err
			}

			info := built.CompareFilesAndSymbols(expected, checkOtherOnSelf)
			for _, comp := range info.ComparedList {
				diff := comp.Diff()
				if diff == nil || *diff != 0 {
					fmt.Printf("%s: build=0x%X expected=0x%X diff=%v\n",
						comp.Symbol.Name, comp.BuildAddress, comp.ExpectedAddress, diffStr(diff))
				}
			}
			fmt.Printf("%d section(s) with address drift, %d missing\n", len(info.BadSections), len(info.MissingSections))
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOtherOnSelf, "check-other-on-self", false, "also report symbols present only in EXPECTED")
	return cmd
}

func diffStr(diff *int64) string {
	if diff == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *diff)
}
