// Package api exposes finsight over HTTP (chi) and MCP (stdio).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkovalev/finsight/internal/extract"
	"github.com/mkovalev/finsight/internal/index"
	"github.com/mkovalev/finsight/internal/orchestrator"
	"github.com/mkovalev/finsight/internal/provider"
	"github.com/mkovalev/finsight/internal/storage"
)

const maxUploadSize = 20 << 20 // 20MB

// Orchestrator abstracts the orchestration layer for the API handlers.
type Orchestrator interface {
	GenerateReport(ctx context.Context, mode, text, company string) (*orchestrator.Result, error)
	AnswerQuestion(ctx context.Context, mode string, ix *index.Index, question, company string) (*orchestrator.Result, error)
	Modes() []orchestrator.ModeInfo
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Orchestrator Orchestrator
	Store        *storage.Store
	Sessions     *Sessions
	// Token enables bearer auth on the /v1 routes when non-empty.
	Token string
}

// NewHandler builds the chi router for all finsight HTTP endpoints.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/reports", handleGenerateReport(deps))
		r.Get("/reports", handleListReports(deps))
		r.Post("/questions", handleAnswerQuestion(deps))
		r.Get("/modes", handleListModes(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// ReportRequest is the JSON body for POST /v1/reports. Multipart uploads
// use the "document" file field plus "company" and "mode" form fields
// instead.
type ReportRequest struct {
	Text    string `json:"text"`
	Company string `json:"company"`
	Mode    string `json:"mode"`
}

// ReportResponse is the JSON response for POST /v1/reports.
type ReportResponse struct {
	DocumentID string               `json:"documentId"`
	Result     *orchestrator.Result `json:"result"`
}

func handleGenerateReport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		req, text, err := decodeReportRequest(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if req.Company == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "company is required")
			return
		}

		result, err := deps.Orchestrator.GenerateReport(r.Context(), req.Mode, text, req.Company)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}

		docID := uuid.New().String()
		deps.Sessions.Put(docID, Session{Index: result.Index, Company: req.Company})

		if err := persistReport(deps.Store, docID, req.Company, result); err != nil {
			// Persistence is best-effort; the generated report is still valid.
			slog.Warn("persisting report failed", "document_id", docID, "error", err)
		}

		writeJSON(w, http.StatusOK, ReportResponse{DocumentID: docID, Result: result})
	}
}

// decodeReportRequest accepts either a JSON body with inline text or a
// multipart upload with a "document" file. It returns the request fields
// and the cleaned document text.
func decodeReportRequest(r *http.Request) (ReportRequest, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return ReportRequest{}, "", fmt.Errorf("parsing multipart form: %w", err)
		}
		file, _, err := r.FormFile("document")
		if err != nil {
			return ReportRequest{}, "", fmt.Errorf("document file is required: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return ReportRequest{}, "", fmt.Errorf("reading document: %w", err)
		}
		text, err := extract.Text(data)
		if err != nil {
			return ReportRequest{}, "", err
		}
		return ReportRequest{
			Company: r.FormValue("company"),
			Mode:    r.FormValue("mode"),
		}, text, nil
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ReportRequest{}, "", fmt.Errorf("invalid request body: %w", err)
	}
	text, err := extract.Text([]byte(req.Text))
	if err != nil {
		return ReportRequest{}, "", err
	}
	return req, text, nil
}

func persistReport(store *storage.Store, docID, company string, result *orchestrator.Result) error {
	chunkCount := 0
	if result.Index != nil {
		chunkCount = result.Index.Len()
	}
	if err := store.SaveDocument(storage.Document{
		ID:         docID,
		Company:    company,
		ChunkCount: chunkCount,
		UploadedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	sectionsJSON, err := json.Marshal(result.Sections)
	if err != nil {
		return fmt.Errorf("marshaling sections: %w", err)
	}
	if err := store.SaveReport(storage.Report{
		ID:             uuid.New().String(),
		DocumentID:     docID,
		Company:        company,
		Mode:           result.Mode,
		StrategyName:   result.StrategyName,
		Fallback:       result.Fallback,
		OriginalMode:   result.OriginalMode,
		FallbackReason: result.FallbackReason,
		SectionsJSON:   string(sectionsJSON),
		CreatedAt:      result.Timestamp,
	}); err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// QuestionRequest is the JSON body for POST /v1/questions.
type QuestionRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
	Mode       string `json:"mode"`
}

func handleAnswerQuestion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.DocumentID == "" || req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "documentId and question are required")
			return
		}

		session, ok := deps.Sessions.Get(req.DocumentID)
		if !ok {
			httpError(w, http.StatusNotFound, "invalid_request_error", "unknown document %q; generate a report first", req.DocumentID)
			return
		}

		result, err := deps.Orchestrator.AnswerQuestion(r.Context(), req.Mode, session.Index, req.Question, session.Company)
		if err != nil {
			writeOrchestratorError(w, err)
			return
		}

		if err := deps.Store.SaveAnswer(storage.Answer{
			ID:         uuid.New().String(),
			DocumentID: req.DocumentID,
			Company:    session.Company,
			Mode:       result.Mode,
			Question:   req.Question,
			Answer:     result.Answer,
			Fallback:   result.Fallback,
			CreatedAt:  result.Timestamp,
		}); err != nil {
			slog.Warn("persisting answer failed", "document_id", req.DocumentID, "error", err)
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleListModes(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"modes": deps.Orchestrator.Modes()})
	}
}

func handleListReports(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := deps.Store.ListReports(50)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing reports: %v", err)
			return
		}

		type reportEntry struct {
			ID         string          `json:"id"`
			DocumentID string          `json:"documentId"`
			Company    string          `json:"company"`
			Mode       string          `json:"mode"`
			Fallback   bool            `json:"fallback,omitempty"`
			Sections   json.RawMessage `json:"sections"`
			CreatedAt  time.Time       `json:"createdAt"`
		}
		entries := make([]reportEntry, len(reports))
		for i, rep := range reports {
			entries[i] = reportEntry{
				ID:         rep.ID,
				DocumentID: rep.DocumentID,
				Company:    rep.Company,
				Mode:       rep.Mode,
				Fallback:   rep.Fallback,
				Sections:   json.RawMessage(rep.SectionsJSON),
				CreatedAt:  rep.CreatedAt,
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": entries})
	}
}

// writeOrchestratorError maps the error taxonomy to HTTP statuses:
// disabled mode is a client configuration error, provider failures are
// upstream errors, empty extraction is an unprocessable document.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	var cfgErr *orchestrator.ConfigError
	if errors.As(err, &cfgErr) {
		httpError(w, http.StatusBadRequest, "configuration_error", "%v", cfgErr)
		return
	}
	var pErr *provider.Error
	if errors.As(err, &pErr) {
		httpError(w, http.StatusBadGateway, "provider_error", "%v", err)
		return
	}
	if errors.Is(err, extract.ErrEmpty) {
		httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
		return
	}
	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
