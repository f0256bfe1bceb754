package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/progress"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List subjects and their levels (optionally for one age)",
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetInt("age")

		bands := progress.AllBands()
		if age != 0 {
			bands = []progress.AgeBand{progress.BandFor(age)}
		}

		out := cmd.OutOrStdout()
		catalog := progress.DefaultCatalog()
		for _, band := range bands {
			fmt.Fprintf(out, "Ages %s\n", band)
			fmt.Fprintln(out, strings.Repeat("─", 72))
			for _, subject := range catalog.Subjects(band) {
				fmt.Fprintf(out, "  %-10s  %s\n", subject, strings.Join(catalog.Levels(subject, band), " → "))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	subjectsCmd.Flags().IntP("age", "a", 0, "Only show the levels for this age")
	rootCmd.AddCommand(subjectsCmd)
}
