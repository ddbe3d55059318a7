package api

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/kamilpajak/nutrilens/internal/analysis"
	"github.com/kamilpajak/nutrilens/internal/imageproc"
)

const multipartMemory = 32 << 20

// analyzeForm is the decoded upload, before image processing.
type analyzeForm struct {
	Image       []byte
	Description string
	UserID      string
	MealType    string
}

// analyzeJSONRequest is the JSON alternative to the multipart upload. Image is
// base64, optionally as a data: URI.
type analyzeJSONRequest struct {
	Image       string `json:"image"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
	MealType    string `json:"mealType"`
}

// handleAnalyzeFood analyzes an uploaded meal photo.
func (s *Server) handleAnalyzeFood(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadBytes {
		writeEnvelope(w, s.orchestrator.Reject(analysis.Invalid("Image is too large")))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	form, err := s.parseAnalyzeForm(r)
	if err != nil {
		s.logger.Info("rejected analyze request", "error", err)
		writeEnvelope(w, s.orchestrator.Reject(err))
		return
	}

	req := analysis.Request{
		Description: form.Description,
		UserID:      form.UserID,
		MealType:    form.MealType,
	}
	if len(form.Image) > 0 {
		img, err := imageproc.Process(form.Image, s.maxImageDimension)
		if err != nil {
			s.logger.Info("rejected image", "error", err)
			writeEnvelope(w, s.orchestrator.Reject(analysis.Invalid("Invalid image file")))
			return
		}
		req.Image = img
	}

	// Answer bad input with its own status before any stream starts.
	if err := analysis.Validate(req); err != nil {
		writeEnvelope(w, s.orchestrator.Reject(err))
		return
	}

	if wantsEventStream(r) && s.streamAnalysis(w, r, req) {
		return
	}
	writeEnvelope(w, s.orchestrator.Run(r.Context(), req))
}

// parseAnalyzeForm reads a multipart or JSON request. A missing image is not
// an error here; the orchestrator reports it.
func (s *Server) parseAnalyzeForm(r *http.Request) (*analyzeForm, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, analysis.Invalid("Unsupported content type")
	}

	switch mediaType {
	case "multipart/form-data":
		return s.parseMultipart(r)
	case "application/json":
		return parseJSONBody(r)
	default:
		return nil, analysis.Invalid("Unsupported content type")
	}
}

func (s *Server) parseMultipart(r *http.Request) (*analyzeForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, bodyError(err, "Invalid form data")
	}

	form := &analyzeForm{
		Description: r.FormValue("description"),
		UserID:      r.FormValue("userId"),
		MealType:    r.FormValue("mealType"),
	}

	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		return nil, analysis.Invalid("Invalid image file")
	}
	defer file.Close()

	form.Image, err = io.ReadAll(file)
	if err != nil {
		return nil, bodyError(err, "Invalid image file")
	}
	return form, nil
}

func parseJSONBody(r *http.Request) (*analyzeForm, error) {
	var body analyzeJSONRequest
	if err := readJSON(r, &body); err != nil {
		return nil, bodyError(err, "Invalid request body")
	}

	form := &analyzeForm{
		Description: body.Description,
		UserID:      body.UserID,
		MealType:    body.MealType,
	}
	if body.Image == "" {
		return form, nil
	}

	data, err := imageproc.DecodeBase64(body.Image)
	if err != nil {
		return nil, analysis.Invalid("Invalid image file")
	}
	form.Image = data
	return form, nil
}

// bodyError maps a body read failure to a validation error, reporting
// oversized uploads distinctly.
func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return analysis.Invalid("Image is too large")
	}
	return analysis.Invalid(message)
}
