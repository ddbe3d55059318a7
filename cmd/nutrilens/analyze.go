package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kamilpajak/nutrilens/internal/analysis"
	"github.com/kamilpajak/nutrilens/internal/config"
	"github.com/kamilpajak/nutrilens/internal/imageproc"
	"github.com/kamilpajak/nutrilens/internal/logging"
)

var (
	analyzeDescription string
	analyzeMealType    string
	analyzeUser        string
	jsonOutput         bool
	verbose            bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Estimate the nutrition of a meal photo",
	Long: `Analyze a meal photo with the configured provider and print the
detected items, calories and macros.

Examples:
  nutrilens analyze ./lunch.jpg
  nutrilens analyze ./dinner.png --description "salmon with rice" --meal-type dinner
  NUTRILENS_PROVIDER=google GOOGLE_API_KEY=... nutrilens analyze ./meal.webp --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeDescription, "description", "d", "", "Free-text hint about the meal")
	analyzeCmd.Flags().StringVarP(&analyzeMealType, "meal-type", "m", "snack", "Meal type (breakfast, lunch, dinner, snack)")
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "cli", "User ID recorded with the request")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the response envelope as JSON")
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show provider progress and logs")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := "error"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(stderr, level, "text")
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	img, err := imageproc.Process(data, cfg.Image.MaxDimension)
	if err != nil {
		return fmt.Errorf("invalid image %s: %w", path, err)
	}

	req := analysis.Request{
		Image:       img,
		Description: analyzeDescription,
		UserID:      analyzeUser,
		MealType:    analyzeMealType,
	}
	if verbose {
		req.Emitter = &analysis.TextEmitter{W: stderr}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var spin *spinner.Spinner
	if !verbose && isTerminal(stderr) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stderr))
		spin.Suffix = fmt.Sprintf(" Analyzing with %s...", orch.ProviderName())
		spin.Start()
	}

	env := orch.Run(ctx, req)

	if spin != nil {
		spin.Stop()
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(env); err != nil {
			return err
		}
	} else {
		printResult(stderr, stdout, env)
	}

	if !env.OK() {
		return fmt.Errorf("analysis failed: %s (%d)", env.Failure.Code, env.Status)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
