package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledoux/bakehouse/internal/importer"
	"github.com/ledoux/bakehouse/internal/logging"
	"github.com/ledoux/bakehouse/internal/store"
)

// handleListKinds returns the registered import kinds.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	type kindInfo struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}
	var kinds []kindInfo
	for _, key := range importer.Kinds() {
		def, _ := importer.Lookup(key)
		kinds = append(kinds, kindInfo{Key: def.Key, Label: def.Label})
	}
	writeJSON(w, kinds)
}

// handleUpload receives a multipart file and opens an import session. The
// response is the parsed preview plus the proposed column mapping.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to read file")
		return
	}

	preview, err := s.imports.Begin(kind, header.Filename, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("upload accepted",
		"kind", kind,
		"file", header.Filename,
		"session_id", preview.SessionID,
		"rows", preview.TotalRows,
	)
	writeJSON(w, preview)
}

// handleSessionStatus returns the session snapshot, including the outcome
// once a commit has finished.
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.imports.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleDiscardSession drops a session. Rows already committed stay.
func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := s.imports.Discard(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConfirmMapping applies the operator's overrides and confirms the
// mapping for commit.
func (s *Server) handleConfirmMapping(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "sessionID")
	if err := s.imports.ConfirmMapping(id, req.Mapping); err != nil {
		respondError(w, r, err)
		return
	}

	st, err := s.imports.Get(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleCommit runs the batch. The response is always the full outcome;
// per-row failures are data, not an HTTP error.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID int64 `json:"ownerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerID <= 0 {
		writeError(w, r, http.StatusBadRequest, "ownerId is required")
		return
	}

	outcome, err := s.imports.Commit(r.Context(), chi.URLParam(r, "sessionID"), req.OwnerID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, outcome)
}

// handleDownloadFailures exports a committed session's row failures as CSV
// so the operator can fix and re-upload just the bad rows.
func (s *Server) handleDownloadFailures(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	st, err := s.imports.Get(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if st.Outcome == nil {
		writeError(w, r, http.StatusConflict, "session has not been committed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "failures-"+id+".csv"))

	cw := csv.NewWriter(w)
	cw.Write([]string{"row", "error"})
	for _, f := range st.Outcome.Failures {
		cw.Write([]string{strconv.Itoa(f.RowIndex), f.Message})
	}
	cw.Flush()
}

// handleListOrders lists orders for an owner, defaulting to the synthesized
// placeholders awaiting review.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(r.URL.Query().Get("owner"), 10, 64)
	if err != nil || ownerID <= 0 {
		writeError(w, r, http.StatusBadRequest, "owner query parameter is required")
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.StatusImported
	}

	orders, err := s.orders.ListByStatus(r.Context(), ownerID, status)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list orders")
		return
	}

	type orderInfo struct {
		ID          int64  `json:"id"`
		OrderNumber string `json:"orderNumber"`
		Status      string `json:"status"`
	}
	out := make([]orderInfo, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderInfo{ID: o.ID, OrderNumber: o.Number, Status: o.Status})
	}
	writeJSON(w, out)
}
