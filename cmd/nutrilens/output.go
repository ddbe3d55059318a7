package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kamilpajak/nutrilens/internal/analysis"
)

func printResult(stderr, stdout io.Writer, env *analysis.Envelope) {
	if !env.OK() {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(stderr, "Analysis failed (%d %s)\n", env.Status, env.Failure.Code)
		fmt.Fprintln(stderr, env.Failure.Error)
		if env.Failure.Retryable {
			dim := color.New(color.FgHiBlack)
			_, _ = dim.Fprintln(stderr, "  This error is temporary; retrying may help.")
		}
		return
	}

	res := env.Success.Data
	meta := env.Success.Meta

	if meta.Fallback {
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Fprintf(stderr, "  Warning: primary provider failed (HTTP %d); showing an estimate from the %s provider.\n",
			meta.OriginalStatus, meta.Provider)
		fmt.Fprintln(stderr)
	}

	if len(res.Items) == 0 {
		fmt.Fprintln(stdout, "No food detected.")
		return
	}

	bold := color.New(color.Bold)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPORTION\tKCAL\tPROTEIN\tFAT\tCARBS\tCONF")
	for _, it := range res.Items {
		fmt.Fprintf(tw, "%s\t%g %s\t%.0f\t%.1fg\t%.1fg\t%.1fg\t%d%%\n",
			it.Name, it.Quantity, it.Unit, it.Calories, it.Protein, it.Fat, it.Carbs, percent(it.Confidence))
	}
	_ = tw.Flush()

	fmt.Fprintln(stdout)
	_, _ = bold.Fprintf(stdout, "Total: %d kcal", res.TotalCalories)
	fmt.Fprintf(stdout, "  (protein %.1fg, fat %.1fg, carbs %.1fg)\n", res.TotalProtein, res.TotalFat, res.TotalCarbs)

	fmt.Fprintln(stderr)
	dim := color.New(color.FgHiBlack)
	_, _ = dim.Fprintln(stderr, "  "+strings.Repeat("━", 50))
	printConfidenceBar(stderr, percent(res.OverallConfidence), meta.Provider)
}

func percent(f float64) int {
	return int(math.Round(f * 100))
}

func printConfidenceBar(w io.Writer, confidence int, provider string) {
	const barWidth = 24
	filled := confidence * barWidth / 100
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	var barColor *color.Color
	switch {
	case confidence >= 80:
		barColor = color.New(color.FgGreen)
	case confidence >= 60:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(w, "  Confidence: %d%% ", confidence)
	_, _ = barColor.Fprint(w, bar)
	dim := color.New(color.FgHiBlack)
	_, _ = dim.Fprintf(w, " (%s)\n", provider)
}
