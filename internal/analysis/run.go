package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kamilpajak/nutrilens/internal/vision"
)

// Request is a single meal photo submission.
type Request struct {
	Image       *vision.ProcessedImage
	Description string
	UserID      string
	MealType    string

	// Emitter receives progress events. Optional.
	Emitter ProgressEmitter
}

// Orchestrator calls the primary provider and, on recoverable failures, the
// fallback provider. It holds no per-request state and is safe for concurrent
// use.
type Orchestrator struct {
	primary  vision.Provider
	fallback vision.Provider
	logger   *slog.Logger
	debug    bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for provider failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDebug includes failure details and the error cause chain in error
// envelopes.
func WithDebug(on bool) Option {
	return func(o *Orchestrator) { o.debug = on }
}

// New creates an orchestrator. fallback may be nil to disable degradation.
func New(primary, fallback vision.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		primary:  primary,
		fallback: fallback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProviderName returns the primary provider's name.
func (o *Orchestrator) ProviderName() string {
	return o.primary.Name()
}

// Run analyzes one request. It always returns an envelope; failures are
// classified and never returned raw.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Envelope {
	emitter := req.Emitter
	if emitter == nil {
		emitter = nopEmitter{}
	}

	if err := Validate(req); err != nil {
		return o.Reject(err)
	}

	primaryName := o.primary.Name()
	emitter.Emit(ProgressEvent{Type: "primary", Provider: primaryName})

	res, err := o.primary.AnalyzeFood(ctx, req.Image, req.Description)
	if err == nil && res == nil {
		err = fmt.Errorf("%s: %w", primaryName, vision.ErrEmptyResponse)
	}
	if err == nil {
		res.Fallback = false
		emitter.Emit(ProgressEvent{Type: "done", Provider: primaryName, Message: summary(res)})
		return successEnvelope(res, Meta{Provider: primaryName})
	}

	classified := Classify(err)
	o.logger.Warn("primary provider failed",
		"provider", primaryName,
		"kind", classified.Kind,
		"status", classified.Status,
		"code", classified.Code,
		"error", err,
	)

	if o.canFallback(classified, req.Image) {
		fallbackName := o.fallback.Name()
		emitter.Emit(ProgressEvent{Type: "fallback", Provider: fallbackName, Status: classified.Status})

		fres, ferr := o.fallback.AnalyzeFood(ctx, req.Image, req.Description)
		if ferr == nil && fres != nil {
			fres.Fallback = true
			o.logger.Info("served fallback estimate",
				"provider", fallbackName,
				"original_status", classified.Status,
			)
			emitter.Emit(ProgressEvent{Type: "done", Provider: fallbackName, Message: summary(fres)})
			return successEnvelope(fres, Meta{
				Provider:       fallbackName,
				Fallback:       true,
				Reason:         ReasonPrimaryError,
				OriginalStatus: classified.Status,
			})
		}
		o.logger.Error("fallback provider failed",
			"provider", fallbackName,
			"original_status", classified.Status,
			"error", ferr,
		)
	}

	emitter.Emit(ProgressEvent{Type: "error", Status: classified.Status, Message: classified.Message})
	return failureEnvelope(classified, o.debug)
}

// Reject builds a failure envelope without calling any provider. Callers use
// it for input that fails before a Request can be formed, such as an
// unreadable upload.
func (o *Orchestrator) Reject(err error) *Envelope {
	return failureEnvelope(Classify(err), o.debug)
}

func (o *Orchestrator) canFallback(c *ClassifiedError, img *vision.ProcessedImage) bool {
	if o.fallback == nil || o.fallback.Name() == o.primary.Name() {
		return false
	}
	return eligibleForFallback(c, img)
}

// Validate checks that req carries an image, a user and a meal type. The
// error is a validation failure suitable for Reject.
func Validate(req Request) error {
	if req.Image == nil || len(req.Image.Data) == 0 {
		return Invalid("Image file is required")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return Invalid("User ID is required")
	}
	if strings.TrimSpace(req.MealType) == "" {
		return Invalid("Meal type is required")
	}
	return nil
}

func summary(res *vision.AnalysisResult) string {
	return fmt.Sprintf("%d items, %d kcal", len(res.Items), res.TotalCalories)
}
