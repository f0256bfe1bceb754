package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/board"
	"github.com/abhisek/sunny/internal/coach"
	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/store"
	"github.com/abhisek/sunny/internal/tutor"
	"github.com/abhisek/sunny/internal/ui/theme"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a subject and age (no database)",
	Long: `Generate and answer a few questions for one subject and age.

This is a stateless developer tool: nothing is saved and no events are
recorded. Useful for checking prompts and model output quality.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("subject", "s", "math", "Subject to preview")
	previewCmd.Flags().IntP("age", "a", 7, "Learner age")
	previewCmd.Flags().Int("count", 3, "Number of questions to generate")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	subject, _ := cmd.Flags().GetString("subject")
	age, _ := cmd.Flags().GetInt("age")
	count, _ := cmd.Flags().GetInt("count")

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if err := e.cfg.LLM.Validate(); err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	provider, err := llm.NewProvider(ctx, e.cfg.LLM, nil, e.log)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}

	repo := progress.NewRepo(store.NewMemoryKV(), progress.DefaultCatalog())
	svc := tutor.NewService(provider, repo, tutorConfig(e), e.log)
	renderer := board.NewTerminalRenderer()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	learner := coach.Learner{Name: "Preview", Age: age}
	fmt.Fprintf(out, "Subject: %s, age %d (%s)\n\n", subject, age, learner.Band())

	var correct, asked int
	for i := 1; i <= count; i++ {
		var turn tutor.Turn
		if i == 1 {
			turn, err = svc.Start(ctx, learner, subject)
		} else {
			turn, err = svc.Skip(ctx)
		}
		if err != nil {
			fmt.Fprintf(out, "Question %d: generation failed: %v\n\n", i, err)
			continue
		}
		asked++

		q := turn.Response
		fmt.Fprintf(out, "── Question %d/%d (expect %s, answer %s) ──\n", i, count, q.Expect, q.CorrectAnswer)
		renderer.Render(out, q.StudyBoard)
		fmt.Fprintln(out, theme.CoachSay.Render(q.CoachSay))

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprint(out, "(skipped)\n\n")
			continue
		}
		if opt, ok := board.ResolveChoice(q.StudyBoard, answer); ok {
			answer = opt
		}

		reply, err := svc.Answer(ctx, answer)
		switch {
		case err != nil:
			fmt.Fprintf(out, "Answer failed: %v\n", err)
		case reply.Correct():
			correct++
			fmt.Fprintln(out, theme.Correct.Render("✓ Correct!"))
		default:
			fmt.Fprintln(out, theme.Incorrect.Render("✗ Not yet."))
		}
		if reply.Response.CoachSay != "" {
			fmt.Fprintf(out, "Coach: %s\n", reply.Response.CoachSay)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, asked)
	return nil
}
