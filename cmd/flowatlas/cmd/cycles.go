package cmd

import (
	"fmt"

	"github.com/ahertel/flowatlas/internal/readiness"
	"github.com/spf13/cobra"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles <aspect>",
	Short: "Find annotation-blocking dependency cycles",
	Long: `Find strongly connected components among the definitions still lacking
the aspect. Every member of such a cycle depends on another unannotated
member, so none of them will ever appear in "ready" until the cycle is
broken by annotating one of them directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, err := openSnapshot()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := readiness.New(snap)
		cycles, err := engine.FindCycles(args[0])
		if err != nil {
			return err
		}

		if len(cycles) == 0 {
			fmt.Printf("No blocking cycles for aspect %q.\n", args[0])
			return nil
		}
		for i, cycle := range cycles {
			fmt.Printf("Cycle %d (%d definitions):\n", i+1, len(cycle))
			for _, def := range cycle {
				fmt.Printf("  #%d %s (%s)\n", def.ID, def.Name, def.File)
			}
		}
		return nil
	},
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show annotation coverage per aspect",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, err := openSnapshot()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := readiness.New(snap)
		for _, cov := range engine.AspectCoverage(readinessFilter()) {
			fmt.Printf("  %-20s %d/%d (%.1f%%)\n", cov.Key, cov.Covered, cov.Total, cov.Percentage)
		}
		return nil
	},
}

func init() {
	coverageCmd.Flags().StringSliceVar(&readyKinds, "kind", nil, "restrict to definition kinds")
	coverageCmd.Flags().StringVar(&readyFile, "file", "", "restrict to files containing this substring")
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(coverageCmd)
}
