package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/progress"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List recently active learners",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		st, err := openStores(e)
		if err != nil {
			return err
		}
		defer st.Close()

		return printRecent(cmd.Context(), cmd.OutOrStdout(), progress.NewRepo(st.kv, progress.DefaultCatalog()), limit)
	},
}

func init() {
	usersCmd.Flags().IntP("limit", "n", 5, "Number of learners to show")
}

func printRecent(ctx context.Context, out io.Writer, dir progress.ProfileDirectory, limit int) error {
	recent, err := dir.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list learners: %w", err)
	}

	if len(recent) == 0 {
		fmt.Fprintln(out, "No learners yet.")
		return nil
	}

	fmt.Fprintf(out, "%-20s  %4s  %7s  %s\n", "Name", "Age", "Points", "Last active")
	fmt.Fprintln(out, strings.Repeat("─", 56))
	for _, r := range recent {
		fmt.Fprintf(out, "%-20s  %4d  %7d  %s\n",
			truncate(r.Name, 20), r.Age, r.TotalPoints, r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
