package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/metrics"
	"github.com/intentswap/settler/pkg/models"
	"github.com/intentswap/settler/pkg/quote"
)

// listPageSize and listMaxPages bound the API's own paging loop over
// the adapter, mirroring the solver's hard cap.
const (
	listPageSize = 50
	listMaxPages = 40
)

// defaultCreator stands in when a create request names no creator.
const defaultCreator = "STDEMOUSER"

// IntentHandler serves the settlement operations.
type IntentHandler struct {
	ledger ledger.Adapter
	prices quote.Table
	logger logger.Logger
}

// createRequest is the create-intent body.
type createRequest struct {
	IntentType   models.IntentType `json:"intentType"`
	TokenIn      string            `json:"tokenIn"`
	TokenOut     string            `json:"tokenOut"`
	AmountIn     string            `json:"amountIn"`
	MinAmountOut string            `json:"minAmountOut"`
	Deadline     int64             `json:"deadline"`
	SolverFeeBps int               `json:"solverFeeBps"`
	Creator      string            `json:"creator,omitempty"`
}

// cancelRequest is the cancel-intent body. TokenIn is carried for
// ledgers whose cancel transaction references the escrowed asset.
type cancelRequest struct {
	Creator string `json:"creator"`
	TokenIn string `json:"tokenIn"`
}

// txResponse pairs a transaction reference with the resulting intent
// snapshot.
type txResponse struct {
	TxID   string        `json:"txid"`
	Intent models.Intent `json:"intent"`
}

// List returns all intents, optionally filtered by creator and
// effective status.
func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	creator := r.URL.Query().Get("creator")
	status := r.URL.Query().Get("status")

	intents, err := h.listAll(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filtered := make([]models.Intent, 0, len(intents))
	for _, intent := range intents {
		if creator != "" && intent.Creator != creator {
			continue
		}
		if status != "" && string(intent.Status) != status {
			continue
		}
		filtered = append(filtered, intent)
	}

	count := len(filtered)
	writeJSON(w, http.StatusOK, dataResponse{Data: filtered, Count: &count})
}

// listAll pages through the adapter with a hard page cap.
func (h *IntentHandler) listAll(r *http.Request) ([]models.Intent, error) {
	var items []models.Intent
	for page := 0; page < listMaxPages; page++ {
		batch, err := h.ledger.List(r.Context(), page*listPageSize, listPageSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		items = append(items, batch...)
		if len(batch) < listPageSize {
			break
		}
	}
	return items, nil
}

// Get returns one intent by id.
func (h *IntentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	intent, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, intent)
}

// Create validates the request, refuses intents that could never be
// filled at the configured price, and only then submits to the
// ledger. Nothing is created on a rejected request.
func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	params := models.CreateIntentParams{
		IntentType:   req.IntentType,
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
		Deadline:     req.Deadline,
		SolverFeeBps: req.SolverFeeBps,
	}
	if err := params.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	creator := req.Creator
	if creator == "" {
		creator = defaultCreator
	}

	// Pre-flight quote: an intent unfillable at the current price is
	// rejected before it reaches the ledger.
	preview := quote.Compute(models.Intent{
		Creator:      creator,
		IntentType:   params.IntentType,
		TokenIn:      params.TokenIn,
		TokenOut:     params.TokenOut,
		AmountIn:     params.AmountIn,
		MinAmountOut: params.MinAmountOut,
		Deadline:     params.Deadline,
		SolverFeeBps: params.SolverFeeBps,
		Status:       models.StatusOpen,
		AmountOut:    "0",
	}, h.prices)
	if !preview.Valid {
		writeError(w, http.StatusBadRequest, preview.Reason)
		return
	}

	intent, err := h.ledger.Create(r.Context(), creator, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	metrics.IntentsCreated.Inc()
	h.logger.InfoC(logger.API, "created intent %d for %s", intent.ID, intent.Creator)
	writeData(w, http.StatusOK, txResponse{TxID: intent.LastTxID, Intent: intent})
}

// Cancel withdraws an open intent on behalf of its creator.
func (h *IntentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Creator) < 3 {
		writeError(w, http.StatusBadRequest, "creator is required")
		return
	}
	if len(req.TokenIn) < 3 {
		writeError(w, http.StatusBadRequest, "tokenIn is required")
		return
	}

	intent, err := h.ledger.Cancel(r.Context(), id, req.Creator)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	metrics.IntentsCanceled.Inc()
	h.logger.InfoC(logger.API, "canceled intent %d", intent.ID)
	writeData(w, http.StatusOK, txResponse{TxID: intent.LastTxID, Intent: intent})
}

// Quote computes a quote for an existing intent id.
func (h *IntentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id query param required")
		return
	}

	intent, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, quote.Compute(intent, h.prices))
}

// parseID extracts and validates the {id} URL parameter.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid intent id")
		return 0, false
	}
	return id, true
}
