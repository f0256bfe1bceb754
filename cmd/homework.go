package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/abhisek/sunny/internal/coach"
	"github.com/abhisek/sunny/internal/llm"
	"github.com/abhisek/sunny/internal/progress"
	"github.com/abhisek/sunny/internal/store"
	"github.com/abhisek/sunny/internal/tutor"
	"github.com/abhisek/sunny/internal/ui/theme"
)

// maxImageBytes matches the proxy's default body limit.
const maxImageBytes = 10 << 20

var homeworkCmd = &cobra.Command{
	Use:   "homework [question]",
	Short: "Ask for help with homework, optionally with a photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(cmd)
		if err != nil {
			return err
		}
		st, err := openLocal(e)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := newProvider(ctx, e, st.EventRepo())
		if err != nil {
			return err
		}

		var img *llm.Image
		if path, _ := cmd.Flags().GetString("image"); path != "" {
			img, err = loadImage(path)
			if err != nil {
				return err
			}
		}

		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetInt("age")
		learner := coach.Learner{Name: name, Age: age}

		// Homework help never touches progress.
		repo := progress.NewRepo(store.NewMemoryKV(), progress.DefaultCatalog())
		svc := tutor.NewService(provider, repo, tutorConfig(e), e.log)
		answer, err := svc.Homework(ctx, learner, strings.Join(args, " "), img)
		fmt.Fprintln(cmd.OutOrStdout(), theme.CoachSay.Render(answer))
		return err
	},
}

func init() {
	homeworkCmd.Flags().StringP("image", "i", "", "Photo of the homework (png, jpeg, gif or webp)")
	homeworkCmd.Flags().StringP("name", "n", "friend", "Learner name")
	homeworkCmd.Flags().IntP("age", "a", 10, "Learner age")
}

// loadImage reads a picture and detects its media type from content.
func loadImage(path string) (*llm.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s is larger than %d MB", path, maxImageBytes>>20)
	}

	mt := mimetype.Detect(data)
	if !mt.Is("image/png") && !mt.Is("image/jpeg") && !mt.Is("image/gif") && !mt.Is("image/webp") {
		return nil, fmt.Errorf("unsupported image type %s", mt.String())
	}
	return &llm.Image{
		MediaType: mt.String(),
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}
