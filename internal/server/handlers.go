package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docportal/internal/common"
	"docportal/internal/extract"
	"docportal/internal/match"
	"docportal/internal/store"
	"docportal/internal/verify"
)

const cacheConfidenceFloor = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "docportal"})
}

func (s *Server) handleExtractID(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	userID := r.FormValue("user_id")
	useVision := formBool(r, "use_vision", true)
	if userID != "" {
		r = r.WithContext(common.WithUserID(r.Context(), userID))
	}

	if userID != "" && s.store != nil {
		cached, err := s.store.GetUserRecord(r.Context(), userID)
		if err == nil {
			s.logger.Info("id cache hit", zap.String("user_id", userID))
			s.respondJSON(w, http.StatusOK, map[string]any{"extracted": cached, "source": "cache"})
			return
		}
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("user cache lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	up, err := readUpload(r, "file")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	text, err := s.documentText(r.Context(), up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	var image []byte
	if useVision {
		image = up.Content
	}
	rec := s.ids.Extract(r.Context(), text, image, mimeFor(up.Filename))

	if userID != "" && s.store != nil && rec.Confidence > cacheConfidenceFloor {
		if err := s.store.SaveUserRecord(r.Context(), userID, rec); err != nil {
			s.logger.Warn("user cache save failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"extracted":   rec,
		"source":      "extraction",
		"method_used": rec.Method,
	})
}

type contractDataRequest struct {
	PartyName    string `json:"party_name"`
	PartyAddress string `json:"party_address"`
	PartyDOB     string `json:"party_dob"`
}

func (s *Server) handleVerifyID(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	up, err := readUpload(r, "id_file")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	text, err := s.documentText(r.Context(), up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	rec := s.ids.Extract(r.Context(), text, up.Content, mimeFor(up.Filename))
	if rec.Confidence < cacheConfidenceFloor {
		s.respondError(w, http.StatusBadRequest,
			"ID extraction confidence too low. Please provide a clearer image.")
		return
	}

	var party match.ContractParty
	var contractData any
	switch {
	case r.FormValue("contract_data_json") != "":
		var req contractDataRequest
		if err := json.Unmarshal([]byte(r.FormValue("contract_data_json")), &req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON in contract_data_json")
			return
		}
		party = match.ContractParty{Name: req.PartyName, Address: req.PartyAddress, DOB: req.PartyDOB}
		contractData = req
	case hasUpload(r, "contract_file"):
		contractUp, err := readUpload(r, "contract_file")
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		contractText, err := s.documentText(r.Context(), contractUp)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		// No structured party data; matching runs against empty fields
		// and reports missing_data per field.
		contractData = map[string]string{
			"extracted_text": head(contractText, 500),
			"note":           "provide contract_data_json for structured matching",
		}
	default:
		s.respondError(w, http.StatusBadRequest,
			"either contract_file or contract_data_json must be provided")
		return
	}

	fields := splitFields(r.FormValue("verification_fields"))
	result := s.matcher.MatchIDToContract(&rec.Data, party, fields)

	s.respondJSON(w, http.StatusOK, map[string]any{
		"id_extraction": map[string]any{
			"data":       rec.Data,
			"confidence": rec.Confidence,
			"method":     rec.Method,
		},
		"contract_data":       contractData,
		"verification_result": result,
		"status":              "success",
	})
}

func (s *Server) handleExtractInvoices(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	ups, err := readUploads(r, "files")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	useVision := formBool(r, "use_vision", true)

	results := make([]extract.InvoiceRecord, 0, len(ups))
	for _, up := range ups {
		start := time.Now()
		text, err := s.documentText(r.Context(), up)
		if err != nil {
			s.logger.Error("invoice text extraction failed",
				zap.String("filename", up.Filename), zap.Error(err))
			results = append(results, extract.InvoiceRecord{Filename: up.Filename, Error: err.Error()})
			continue
		}
		// use_vision on the batch path means vision-first: the regex
		// tier never yields line items, so a confident header must not
		// short-circuit the page past the vision call.
		var rec extract.InvoiceRecord
		if useVision {
			rec = s.invoices.ExtractVisionFirst(r.Context(), up.Filename, text, up.Content, mimeFor(up.Filename))
		} else {
			rec = s.invoices.Extract(r.Context(), up.Filename, text, nil, "")
		}
		results = append(results, rec)

		if s.store != nil {
			payload, _ := json.Marshal(rec.Data)
			_, err := s.store.LogResult(r.Context(), store.ResultEntry{
				Filename:   up.Filename,
				Method:     string(rec.Method),
				Confidence: rec.Confidence,
				Duration:   time.Since(start),
				Payload:    payload,
			})
			if err != nil {
				s.logger.Warn("result log append failed",
					zap.String("filename", up.Filename), zap.Error(err))
			}
		}
	}

	merged := s.merger.MergeResults(results)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"batch_count":  len(ups),
		"merged_count": len(merged),
		"results":      merged,
	})
}

func (s *Server) handleExportInvoices(w http.ResponseWriter, r *http.Request) {
	var records []extract.InvoiceRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	data, err := s.exporter.ExportInvoicesXLSX(records)
	if err != nil {
		s.logger.Error("invoice export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleLeaseCompliance(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	up, err := readUpload(r, "file")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	text, err := s.documentText(r.Context(), up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.compliance.CheckTexasLease(text))
}

func (s *Server) handleVerifyContract(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	claimsJSON := r.FormValue("claims_json")
	if claimsJSON == "" {
		s.respondError(w, http.StatusBadRequest, "claims_json is required")
		return
	}
	var claims verify.Claims
	if err := json.Unmarshal([]byte(claimsJSON), &claims); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON in claims_json")
		return
	}
	up, err := readUpload(r, "file")
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	text, err := s.documentText(r.Context(), up)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"filename":     up.Filename,
		"verification": s.verifier.QuickVerify(claims, text),
		"compliance":   s.compliance.CheckTexasLease(text),
	})
}

type verifyJobRequest struct {
	Claims       verify.Claims `json:"claims"`
	DocumentText string        `json:"document_text"`
}

func (s *Server) handleCreateVerifyJob(w http.ResponseWriter, r *http.Request) {
	var req verifyJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentText == "" {
		s.respondError(w, http.StatusBadRequest, "document_text is required")
		return
	}
	id := s.jobs.Enqueue(s.verifier, req.Claims, req.DocumentText)
	s.respondJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) handleGetVerifyJob(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job.Status == verify.JobNotFound {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, job)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusServiceUnavailable, "result log not configured")
		return
	}
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	entries, err := s.store.ListResults(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("result log query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": entries})
}

// parseMultipart bounds and parses the request form, responding with 400
// on failure. Returns false when the handler should bail out.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

func hasUpload(r *http.Request, field string) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File[field]) > 0
}

func formBool(r *http.Request, field string, def bool) bool {
	v := r.FormValue(field)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitFields(s string) []string {
	if s == "" {
		s = "name,address,dob"
	}
	parts := strings.Split(s, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps sentinel-wrapped errors onto status codes. Server
// faults carry the request and user IDs so log lines can be tied back
// to a call.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", common.RequestIDFromContext(r.Context())),
			zap.String("user_id", common.UserIDFromContext(r.Context())),
			zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}
