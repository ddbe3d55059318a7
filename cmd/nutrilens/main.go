// Package main provides the nutrilens CLI and API server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamilpajak/nutrilens/internal/analysis"
	"github.com/kamilpajak/nutrilens/internal/config"
	"github.com/kamilpajak/nutrilens/internal/vision"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "nutrilens",
	Short: "AI-assisted calorie estimation from meal photos",
	Long: `Nutrilens estimates the food items, calories and macros in a meal photo
using a vision model (Gemini, OpenAI or Anthropic). When the model is
unavailable it falls back to a built-in estimator.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if rootCmd.Execute() != nil {
		os.Exit(1)
	}
}

// newOrchestrator wires the configured provider and, if enabled, the mock
// fallback.
func newOrchestrator(cfg *config.Config, logger *slog.Logger) (*analysis.Orchestrator, error) {
	primary, err := vision.NewProvider(cfg.VisionOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	if primary.Name() != cfg.Provider.Kind {
		logger.Warn("no API key configured, using mock provider", "requested", cfg.Provider.Kind)
	}

	var fallback vision.Provider
	if cfg.Fallback.Enabled {
		fallback = vision.NewMockProvider()
	}

	return analysis.New(primary, fallback,
		analysis.WithLogger(logger),
		analysis.WithDebug(!cfg.IsProduction()),
	), nil
}
