package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/nutrilens/internal/analysis"
	"github.com/kamilpajak/nutrilens/internal/config"
	"github.com/kamilpajak/nutrilens/internal/vision"
)

func init() {
	fcolor.NoColor = true
}

func successEnvelope(fallback bool) *analysis.Envelope {
	res := vision.NewAnalysisResult("google", []vision.FoodItem{
		{Name: "Steamed white rice", Quantity: 180, Unit: "g", Calories: 230, Protein: 8.6, Fat: 6.4, Carbs: 34.5, Confidence: 0.9},
		{Name: "Banana", Quantity: 1, Unit: "pcs", Calories: 105, Protein: 3.9, Fat: 2.9, Carbs: 15.8, Confidence: 0.8},
	})
	meta := analysis.Meta{Provider: "google"}
	if fallback {
		res.Fallback = true
		meta = analysis.Meta{Provider: "mock", Fallback: true, Reason: analysis.ReasonPrimaryError, OriginalStatus: 429}
	}
	return &analysis.Envelope{
		Status:  200,
		Success: &analysis.SuccessBody{Success: true, Data: res, Meta: meta},
	}
}

func TestPrintResult_Success(t *testing.T) {
	var stderr, stdout bytes.Buffer

	printResult(&stderr, &stdout, successEnvelope(false))

	assert.Contains(t, stdout.String(), "Steamed white rice")
	assert.Contains(t, stdout.String(), "180 g")
	assert.Contains(t, stdout.String(), "Total: 335 kcal")
	assert.Contains(t, stderr.String(), "━")
	assert.Contains(t, stderr.String(), "Confidence: 85%")
	assert.Contains(t, stderr.String(), "(google)")
	assert.NotContains(t, stderr.String(), "Warning")
}

func TestPrintResult_Fallback(t *testing.T) {
	var stderr, stdout bytes.Buffer

	printResult(&stderr, &stdout, successEnvelope(true))

	assert.Contains(t, stderr.String(), "Warning: primary provider failed (HTTP 429)")
	assert.Contains(t, stderr.String(), "mock provider")
	assert.Contains(t, stdout.String(), "Banana")
}

func TestPrintResult_Empty(t *testing.T) {
	var stderr, stdout bytes.Buffer
	env := &analysis.Envelope{
		Status:  200,
		Success: &analysis.SuccessBody{Success: true, Data: vision.NewAnalysisResult("google", nil), Meta: analysis.Meta{Provider: "google"}},
	}

	printResult(&stderr, &stdout, env)

	assert.Contains(t, stdout.String(), "No food detected.")
	assert.NotContains(t, stderr.String(), "Confidence")
}

func TestPrintResult_Failure(t *testing.T) {
	var stderr, stdout bytes.Buffer
	env := &analysis.Envelope{
		Status: 503,
		Failure: &analysis.FailureBody{
			Error:     analysis.UserMessage(503),
			Code:      analysis.CodeServiceUnavailable,
			Retryable: true,
		},
	}

	printResult(&stderr, &stdout, env)

	assert.Contains(t, stderr.String(), "Analysis failed (503 SERVICE_UNAVAILABLE)")
	assert.Contains(t, stderr.String(), "busy")
	assert.Contains(t, stderr.String(), "retrying may help")
	assert.Empty(t, stdout.String())
}

func TestPrintConfidenceBar_High(t *testing.T) {
	var buf bytes.Buffer
	printConfidenceBar(&buf, 90, "google")

	assert.Contains(t, buf.String(), "Confidence: 90%")
	assert.Contains(t, buf.String(), "█")
	assert.Contains(t, buf.String(), "(google)")
}

func TestPrintConfidenceBar_Low(t *testing.T) {
	var buf bytes.Buffer
	printConfidenceBar(&buf, 0, "mock")

	assert.Contains(t, buf.String(), "Confidence: 0%")
	assert.NotContains(t, buf.String(), "█")
}

func TestPrintConfidenceBar_OverflowClamped(t *testing.T) {
	var buf bytes.Buffer
	printConfidenceBar(&buf, 150, "mock")

	assert.NotContains(t, buf.String(), "░")
}

func TestNewOrchestrator(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("mock provider", func(t *testing.T) {
		cfg := config.Default()
		o, err := newOrchestrator(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "mock", o.ProviderName())
	})

	t.Run("missing key outside production degrades to mock", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider.Kind = "openai"
		o, err := newOrchestrator(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "mock", o.ProviderName())
	})

	t.Run("missing key in production fails", func(t *testing.T) {
		cfg := config.Default()
		cfg.Env = config.EnvProduction
		cfg.Provider.Kind = "openai"
		_, err := newOrchestrator(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("real provider", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider.Kind = "anthropic"
		cfg.Provider.APIKey = "k"
		o, err := newOrchestrator(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", o.ProviderName())
	})
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 180, G: 90, B: 40, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "meal.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	t.Setenv("NUTRILENS_ENV", "test")
	t.Setenv("NUTRILENS_PROVIDER", "mock")
	path := writePNG(t)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"analyze", path, "--json", "--description", "salmon", "--meal-type", "dinner"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		jsonOutput = false
		analyzeDescription = ""
	})

	require.NoError(t, rootCmd.Execute())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items []vision.FoodItem `json:"items"`
		} `json:"data"`
		Meta analysis.Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &body), stdout.String())
	assert.True(t, body.Success)
	assert.Equal(t, "mock", body.Meta.Provider)
	assert.False(t, body.Meta.Fallback)
	require.NotEmpty(t, body.Data.Items)
	assert.Equal(t, "Baked salmon fillet", body.Data.Items[0].Name)
}

func TestAnalyzeCommand_MissingFile(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"analyze", filepath.Join(t.TempDir(), "nope.jpg")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read image")
}

func TestVersionCommand(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "nutrilens dev")
}
