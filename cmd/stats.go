package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/store"
	"github.com/abhisek/sunny/internal/ui/components"
	"github.com/abhisek/sunny/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetInt("age")
		if strings.TrimSpace(name) == "" {
			return errors.New("--name is required")
		}

		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		st, err := openStores(e)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := progress.NewRepo(st.kv, progress.DefaultCatalog()).Load(cmd.Context(), name, age)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No progress saved for %s (age %d).\n", name, age)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}

		printProfile(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringP("name", "n", "", "Learner name")
	statsCmd.Flags().IntP("age", "a", 0, "Learner age")
}

func printProfile(w io.Writer, p progress.LearnerProfile) {
	fmt.Fprintln(w, theme.Title.Render(fmt.Sprintf("%s, age %d (%s)", p.Name, p.Age, p.AgeGroup)))
	fmt.Fprintf(w, "Total points: %d   Activities: %d\n\n", p.TotalPoints, p.TotalActivities)

	fmt.Fprintf(w, "%-10s  %-24s  %6s  %8s  %6s\n", "Subject", "Level", "Points", "Accuracy", "Streak")
	fmt.Fprintln(w, strings.Repeat("─", 62))
	for _, subject := range p.SubjectKeys() {
		sp := p.Subjects[subject]
		fmt.Fprintf(w, "%-10s  %-24s  %6d  %7.0f%%  %6d\n",
			subject, truncate(p.LevelName(subject), 24), sp.Points, sp.Accuracy()*100, sp.CurrentStreak)
	}

	fmt.Fprintln(w)
	for _, subject := range p.SubjectKeys() {
		fmt.Fprintln(w, components.NewLevelBar(subject, p.Subjects[subject], 50).View())
	}
}
