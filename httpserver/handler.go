package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/ruteri/onchain-registrar/interfaces"
	"github.com/ruteri/onchain-registrar/metrics"
	"github.com/ruteri/onchain-registrar/registrar"
)

const (
	// maxNameLength bounds names accepted in the URL path.
	maxNameLength = 255

	opResolve = "resolve"
	opOwner   = "owner"
	opData    = "data"
	opReverse = "reverse"
)

var (
	ErrMissingName    = errors.New("missing name")
	ErrNameTooLong    = errors.New("name too long")
	ErrInvalidAddress = errors.New("invalid address")
	ErrNotRegistered  = errors.New("not registered")
)

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// lookupError maps a lookup failure to the status returned to the caller.
func lookupError(err error) *RequestError {
	var (
		encErr       *registrar.EncodingError
		transportErr *registrar.TransportError
		decErr       *registrar.DecodingError
	)
	switch {
	case errors.As(err, &decErr):
		return &RequestError{StatusCode: http.StatusBadGateway, Err: err}
	case errors.As(err, &transportErr):
		return &RequestError{StatusCode: http.StatusServiceUnavailable, Err: err}
	case errors.As(err, &encErr):
		return &RequestError{StatusCode: http.StatusBadRequest, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &RequestError{StatusCode: http.StatusGatewayTimeout, Err: err}
	default:
		return &RequestError{StatusCode: http.StatusInternalServerError, Err: err}
	}
}

func outcome(found bool, err error) string {
	if err == nil {
		if found {
			return metrics.OutcomeFound
		}
		return metrics.OutcomeAbsent
	}

	var (
		encErr       *registrar.EncodingError
		transportErr *registrar.TransportError
		decErr       *registrar.DecodingError
	)
	switch {
	case errors.As(err, &decErr):
		return metrics.OutcomeDecodingError
	case errors.As(err, &transportErr):
		return metrics.OutcomeTransportError
	case errors.As(err, &encErr):
		return metrics.OutcomeEncodingError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeInternalError
	}
}

// Handler serves registry lookups over HTTP.
type Handler struct {
	registrar interfaces.Registrar
	metrics   *metrics.MetricsServer
	log       *slog.Logger
}

// NewHandler creates a lookup handler. metrics may be nil.
func NewHandler(reg interfaces.Registrar, m *metrics.MetricsServer, log *slog.Logger) *Handler {
	return &Handler{
		registrar: reg,
		metrics:   m,
		log:       log,
	}
}

type resolveResponse struct {
	Name    string `json:"name"`
	Record  string `json:"record"`
	Address string `json:"address"`
}

type ownerResponse struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type dataResponse struct {
	Name   string `json:"name"`
	Record string `json:"record"`
	Data   string `json:"data"`
}

type reverseResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func nameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if name == "" {
		return "", ErrMissingName
	}
	if len(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func recordParam(r *http.Request) string {
	record := r.URL.Query().Get("record")
	if record == "" {
		return registrar.DefaultRecordType
	}
	return record
}

// HandleResolve looks up the address record of a name.
//
// URL format: GET /api/resolve/{name}?record=A&async=1
//
// The async flag uses the handle-returning form of the lookup and waits on
// the handle. Whether the node call blocks depends on the client's execution
// mode, not on the flag. Both forms return the same answer.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := nameParam(r)
	if err != nil {
		h.badRequest(w, opResolve, start, err)
		return
	}
	record := recordParam(r)

	var res interfaces.ResolvedAddress
	if r.URL.Query().Get("async") != "" {
		res, err = h.registrar.ResolveAsync(r.Context(), name, record).Wait(r.Context())
	} else {
		res, err = h.registrar.Resolve(r.Context(), name, record)
	}

	addr, found := res.Value()
	h.observe(opResolve, start, found, err)
	if err != nil {
		h.writeLookupError(w, opResolve, err, "name", name, "record", record)
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotRegistered.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, resolveResponse{Name: name, Record: record, Address: addr.Hex()})
}

// HandleOwner returns the owner of a name.
//
// URL format: GET /api/owner/{name}
func (h *Handler) HandleOwner(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := nameParam(r)
	if err != nil {
		h.badRequest(w, opOwner, start, err)
		return
	}

	res, err := h.registrar.Owner(r.Context(), name)
	owner, found := res.Value()
	h.observe(opOwner, start, found, err)
	if err != nil {
		h.writeLookupError(w, opOwner, err, "name", name)
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotRegistered.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, ownerResponse{Name: name, Owner: owner.Hex()})
}

// HandleData returns the raw 32-byte record of a name.
//
// URL format: GET /api/data/{name}?record=A
func (h *Handler) HandleData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := nameParam(r)
	if err != nil {
		h.badRequest(w, opData, start, err)
		return
	}
	record := recordParam(r)

	res, err := h.registrar.Data(r.Context(), name, record)
	data, found := res.Value()
	h.observe(opData, start, found, err)
	if err != nil {
		h.writeLookupError(w, opData, err, "name", name, "record", record)
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotRegistered.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, dataResponse{Name: name, Record: record, Data: data.Hex()})
}

// HandleReverse returns the name registered for an address.
//
// URL format: GET /api/reverse/{address}
func (h *Handler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	addrHex := chi.URLParam(r, "address")
	if !common.IsHexAddress(addrHex) {
		h.badRequest(w, opReverse, start, fmt.Errorf("%w: %q", ErrInvalidAddress, addrHex))
		return
	}
	addr := common.HexToAddress(addrHex)

	res, err := h.registrar.Reverse(r.Context(), addr)
	name, found := res.Value()
	h.observe(opReverse, start, found, err)
	if err != nil {
		h.writeLookupError(w, opReverse, err, "address", addr.Hex())
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNotRegistered.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, reverseResponse{Address: addr.Hex(), Name: name})
}

func (h *Handler) observe(op string, start time.Time, found bool, err error) {
	h.metrics.ObserveLookup(op, outcome(found, err), time.Since(start))
}

func (h *Handler) badRequest(w http.ResponseWriter, op string, start time.Time, err error) {
	h.metrics.ObserveLookup(op, metrics.OutcomeBadRequest, time.Since(start))
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (h *Handler) writeLookupError(w http.ResponseWriter, op string, err error, attrs ...any) {
	reqErr := lookupError(err)
	if reqErr.StatusCode >= http.StatusInternalServerError {
		h.log.Error("Lookup failed", append([]any{"op", op, "status", reqErr.StatusCode, "err", err}, attrs...)...)
	} else {
		h.log.Debug("Lookup rejected", append([]any{"op", op, "status", reqErr.StatusCode, "err", err}, attrs...)...)
	}
	h.writeJSON(w, reqErr.StatusCode, errorResponse{Error: reqErr.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
