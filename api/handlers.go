/*
handlers.go - HTTP handlers over the venue service

PURPOSE:
  Thin translation layer: parse request, resolve the acting user from
  headers, call the service, serialize the response.

ERROR HANDLING:
  - 400: Validation errors (bad dates, unknown collection, bad body)
  - 404: Record not found
  - 503: Storage unavailable - a report is never served partially wrong

ACTOR IDENTITY:
  The acting user arrives in X-Actor-Name / X-Actor-Email headers set by
  the fronting auth proxy, and is passed explicitly into every mutation.
  There is no ambient session state in this server.
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/venue-ledger/generic"
	"github.com/warp/venue-ledger/ledger"
	"github.com/warp/venue-ledger/logging"
	"github.com/warp/venue-ledger/venue"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *venue.Service
	log     *logging.Logger
}

func NewHandler(service *venue.Service, log *logging.Logger) *Handler {
	return &Handler{Service: service, log: log.WithComponent(logging.ComponentHTTP)}
}

// actorFrom resolves the acting user from request headers.
func actorFrom(r *http.Request) generic.Actor {
	return generic.Actor{
		Name:  r.Header.Get("X-Actor-Name"),
		Email: r.Header.Get("X-Actor-Email"),
	}
}

// collectionFrom validates the {collection} URL segment.
func collectionFrom(r *http.Request) (generic.Collection, bool) {
	switch c := generic.Collection(chi.URLParam(r, "collection")); c {
	case venue.Enquiries, venue.Leads, venue.Receipts:
		return c, true
	default:
		return "", false
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// UpsertRecord creates or updates a record, migrating partitions when the
// anchor date has moved to a different month.
func (h *Handler) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown collection", nil)
		return
	}

	var req UpsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "record id is required", nil)
		return
	}
	anchor, err := generic.ParseTimePoint(req.AnchorDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid anchor date", err)
		return
	}

	rec := generic.NewRecord(generic.RecordID(req.ID), anchor, req.Payload)
	stored, err := h.Service.UpsertRecord(r.Context(), collection, actorFrom(r), rec, req.PreviousPartitionKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(stored))
}

// GetRecord fetches one record from a known partition.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown collection", nil)
		return
	}
	partition := r.URL.Query().Get("partition")
	if partition == "" {
		writeError(w, http.StatusBadRequest, "partition query parameter is required", nil)
		return
	}

	rec, err := h.Service.GetRecord(r.Context(), collection, partition, generic.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// DeleteRecord removes a record from its known partition.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown collection", nil)
		return
	}
	partition := r.URL.Query().Get("partition")
	if partition == "" {
		writeError(w, http.StatusBadRequest, "partition query parameter is required", nil)
		return
	}

	err := h.Service.DeleteRecord(r.Context(), collection, generic.RecordID(chi.URLParam(r, "id")), partition)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMonth returns the records of one month partition.
func (h *Handler) ListMonth(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown collection", nil)
		return
	}
	partition := chi.URLParam(r, "partitionKey")

	records, err := h.Service.ListMonth(r.Context(), collection, partition)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AuditTrail returns a record's change history, newest first.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	collection, ok := collectionFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown collection", nil)
		return
	}
	partition := r.URL.Query().Get("partition")
	if partition == "" {
		writeError(w, http.StatusBadRequest, "partition query parameter is required", nil)
		return
	}

	trail, err := h.Service.AuditTrail(r.Context(), collection, partition, generic.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditDTOs(trail))
}

// PromoteEnquiry turns an enquiry into a booking lead.
func (h *Handler) PromoteEnquiry(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	functionDate, err := generic.ParseTimePoint(req.FunctionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid function date", err)
		return
	}

	lead, err := h.Service.PromoteEnquiry(r.Context(), actorFrom(r),
		generic.RecordID(chi.URLParam(r, "id")), req.EnquiryPartitionKey, functionDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(lead))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyBalance serves the single-day balance report for receipts.
func (h *Handler) DailyBalance(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseTimePoint(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}
	dimension := r.URL.Query().Get("dimension")

	report, err := h.Service.DailyBalance(r.Context(), date, dimension)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PeriodRollup serves the fiscal revenue rollup.
func (h *Handler) PeriodRollup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	args := ledger.RollupArgs{
		Granularity: ledger.ParseGranularity(q.Get("granularity")),
	}
	if y := q.Get("year"); y != "" {
		year, err := generic.ParseTimePoint(y + "-01-01")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		args.FiscalYearStart = year.Year()
	}
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		start, err := generic.ParseTimePoint(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date", err)
			return
		}
		end, err := generic.ParseTimePoint(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date", err)
			return
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "invalid date range: to precedes from", nil)
			return
		}
		args.RangeOverride = &ledger.Period{Start: start, End: end}
	}

	buckets, err := h.Service.PeriodRollup(r.Context(), args)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// SetTarget persists the annual revenue target.
func (h *Handler) SetTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	target, err := decimal.NewFromString(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target amount", err)
		return
	}

	if err := h.Service.SetAnnualTarget(r.Context(), req.FiscalYearStart, target); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "record not found", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	case generic.IsStorageError(err):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
