package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
	"github.com/wolfman30/patient-search-assistant/pkg/logging"
)

// FilterExtractor turns free text into a filter.
type FilterExtractor interface {
	ExtractManual(text string) patients.SearchFilter
	ExtractWithLLM(ctx context.Context, text string) patients.SearchFilter
}

// Searcher runs a bounded, enriched record search.
type Searcher interface {
	Search(ctx context.Context, filter patients.SearchFilter) patients.SearchResult
}

// PatientGetter fetches one patient by id.
type PatientGetter interface {
	Get(ctx context.Context, id string) (patients.SearchResult, error)
}

// SearchHandler exposes extraction and direct searches without the chat
// protocol.
type SearchHandler struct {
	extractor  FilterExtractor
	searcher   Searcher
	records    PatientGetter
	normalizer *patients.Normalizer
	renderer   *patients.TableRenderer
	logger     *logging.Logger
}

type searchRequest struct {
	Message   string `json:"message"`
	Extractor string `json:"extractor"`
}

type extractResponse struct {
	Filter patients.SearchFilter `json:"filter"`
}

type searchResponse struct {
	Filter  patients.SearchFilter `json:"filter"`
	HTML    string                `json:"html"`
	Count   int                   `json:"count"`
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
}

// NewSearchHandler builds the handler. records may be nil, which disables
// GET /patients/{id}.
func NewSearchHandler(extractor FilterExtractor, searcher Searcher, records PatientGetter, logger *logging.Logger) *SearchHandler {
	if extractor == nil {
		panic("handlers: filter extractor cannot be nil")
	}
	if searcher == nil {
		panic("handlers: searcher cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	normalizer := patients.NewNormalizer()
	return &SearchHandler{
		extractor:  extractor,
		searcher:   searcher,
		records:    records,
		normalizer: normalizer,
		renderer:   patients.NewTableRenderer(normalizer),
		logger:     logger,
	}
}

// Extract handles POST /extract and returns the filter only.
func (h *SearchHandler) Extract(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Filter: h.extract(r.Context(), req)})
}

// Search handles POST /search: extract, search, render.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readRequest(w, r)
	if !ok {
		return
	}
	filter := h.extract(r.Context(), req)
	res := h.searcher.Search(r.Context(), filter)
	writeJSON(w, http.StatusOK, h.respond(filter, res))
}

// GetPatient handles GET /patients/{id}.
func (h *SearchHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "patient lookup is not configured"})
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	filter := patients.NewSearchFilter()
	filter.Set(patients.FieldPatientID, id)

	res, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("patient lookup failed", "error", err)
		res = patients.Failure(err.Error())
	}
	writeJSON(w, http.StatusOK, h.respond(filter, h.normalizer.EnrichResult(res)))
}

func (h *SearchHandler) readRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return req, false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": emptyMessageReply})
		return req, false
	}
	switch strings.ToLower(req.Extractor) {
	case "", "manual", "llm":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `extractor must be "manual" or "llm"`})
		return req, false
	}
	return req, true
}

func (h *SearchHandler) extract(ctx context.Context, req searchRequest) patients.SearchFilter {
	if strings.EqualFold(req.Extractor, "llm") {
		return h.extractor.ExtractWithLLM(ctx, req.Message)
	}
	return h.extractor.ExtractManual(req.Message)
}

func (h *SearchHandler) respond(filter patients.SearchFilter, res patients.SearchResult) searchResponse {
	out := searchResponse{
		Filter:  filter,
		Count:   res.Count(),
		Success: res.Success,
		Message: res.Message,
	}
	if res.Success {
		out.HTML = h.renderer.Render(res)
	}
	return out
}
