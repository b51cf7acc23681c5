package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"datalens/internal/core"
	"datalens/internal/log"
	"datalens/internal/middleware/trace"
	"datalens/internal/storage"
)

const maxBodyBytes = 1 << 20

// Handler serves the transactions API.
type Handler struct {
	service *Service
	logger  *log.Logger
}

func NewHandler(service *Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Discard()
	}
	return &Handler{
		service: service,
		logger:  logger.WithComponent(log.ComponentLedger),
	}
}

// RegisterRoutes registers the transaction routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	router.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	router.HandleFunc("/transactions/{id:[0-9]+}", h.GetTransaction).Methods(http.MethodGet)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.List(r.Context())
	if err != nil {
		log.NewStructuredLogger(h.logger).LogError(r.Context(), "Failed to list transactions", err,
			log.ErrorTypeDatabase, log.OpList, log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		h.sendError(w, r, "Internal server error",
			"An unexpected error occurred while listing transactions", http.StatusInternalServerError)
		return
	}

	h.logger.DebugContext(r.Context(), "Transactions listed",
		log.FieldRequestID, trace.GetRequestID(r.Context()),
		log.FieldCount, len(txs))
	writeJSON(w, http.StatusOK, txs)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := trace.GetRequestID(r.Context())

	var req CreateTransactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid request body",
			log.FieldRequestID, requestID,
			log.FieldError, err)
		h.sendError(w, r, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest)
		return
	}

	n, err := req.ToNewTransaction()
	if err != nil {
		h.rejectInput(w, r, err)
		return
	}

	tx, err := h.service.Create(r.Context(), n)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			h.rejectInput(w, r, err)
			return
		}
		log.NewStructuredLogger(h.logger).LogError(r.Context(), "Failed to create transaction", err,
			log.ErrorTypeDatabase, log.OpCreate,
			log.NewFields().WithRequestID(requestID).WithTransaction(0, n.Description, n.Amount.String()))
		h.sendError(w, r, "Internal server error",
			"An unexpected error occurred while creating the transaction", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, r, "Transaction not found",
			"The requested transaction could not be found", http.StatusNotFound)
		return
	}

	tx, err := h.service.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.sendError(w, r, "Transaction not found",
			"The requested transaction could not be found", http.StatusNotFound)
	case err != nil:
		log.NewStructuredLogger(h.logger).LogError(r.Context(), "Failed to get transaction", err,
			log.ErrorTypeDatabase, log.OpGet,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())).WithTransactionID(id))
		h.sendError(w, r, "Internal server error",
			"An unexpected error occurred while retrieving the transaction", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, tx)
	}
}

func (h *Handler) rejectInput(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.InfoContext(r.Context(), "Transaction rejected",
		log.FieldRequestID, trace.GetRequestID(r.Context()),
		log.FieldOperation, log.OpValidate,
		log.FieldErrorType, log.ErrorTypeValidation,
		log.FieldError, err)
	h.sendError(w, r, "Invalid transaction", err.Error(), http.StatusUnprocessableEntity)
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, message, description string, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:       message,
		Status:      status,
		Description: description,
		RequestID:   trace.GetRequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
