package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ticketfusion/sheetsync/internal/core"
	"github.com/ticketfusion/sheetsync/internal/logging"
	"github.com/ticketfusion/sheetsync/internal/source"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts an uploaded Orders CSV (multipart field "file"
// or a raw text/csv body), runs it through the pipeline, and responds
// with the batch report. A header that cannot be resolved yields 422;
// per-row rejections ride along in the report, they are not errors.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	data, fileName, err := readUpload(r, s.cfg.Ingest.MaxFileSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := source.ReadSheet(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	headerRow := -1
	if v := r.URL.Query().Get("header_row"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "header_row must be a non-negative integer")
			return
		}
		headerRow = n
	}

	report, err := s.service.Ingest(r.Context(), rows, fileName, headerRow)
	if err != nil {
		var hdrErr *core.ErrHeaderNotFound
		if errors.As(err, &hdrErr) {
			writeError(w, http.StatusUnprocessableEntity, hdrErr.Error())
			return
		}
		logger.Error("ingest failed", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// recordView is the wire shape of a TicketRecord: nullable fields
// rendered as empty strings kept out via omitempty.
type recordView struct {
	Theater   string `json:"theater"`
	Event     string `json:"event"`
	SoldDate  string `json:"soldDate,omitempty"`
	EventDate string `json:"eventDate,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Price     string `json:"price,omitempty"`
	SourceRow int    `json:"sourceRow"`
}

func toView(rec core.TicketRecord) recordView {
	v := recordView{
		Theater:   rec.Theater,
		Event:     rec.Event,
		SourceRow: rec.SourceRow,
	}
	if rec.SoldDate.Valid {
		v.SoldDate = rec.SoldDate.Time.Format("2006-01-02")
	}
	if rec.EventDate.Valid {
		v.EventDate = rec.EventDate.Time.Format("2006-01-02")
	}
	if rec.Platform.Valid {
		v.Platform = rec.Platform.String
	}
	v.Price = core.NumericString(rec.Price)
	return v
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Records(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("load records", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = toView(rec)
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAvailability evaluates the rule engine over stored records.
// as_of defaults to today (UTC) and accepts YYYY-MM-DD.
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = t
	}

	decisions, err := s.service.Availability(r.Context(), asOf)
	if err != nil {
		logging.FromContext(r.Context()).Error("evaluate availability", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to evaluate availability")
		return
	}

	writeJSON(w, http.StatusOK, decisions)
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	m := s.service.Mapping()
	writeJSON(w, http.StatusOK, map[string]any{
		"theaters":  m.Len(),
		"platforms": m.Platforms(),
		"entries":   m.Entries(),
	})
}

// handleMappingReload re-reads the mapping file and swaps the
// snapshot atomically. Evaluations already in flight keep the table
// they started with.
func (s *Server) handleMappingReload(w http.ResponseWriter, r *http.Request) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	m, err := source.LoadMappingFile(s.cfg.Mapping.File)
	if err != nil {
		logging.FromContext(r.Context()).Error("mapping reload", "file", s.cfg.Mapping.File, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.service.SwapMapping(m)
	writeJSON(w, http.StatusOK, map[string]any{
		"theaters":  m.Len(),
		"platforms": m.Platforms(),
	})
}

// readUpload extracts the CSV payload from a multipart form (field
// "file") or the raw request body.
func readUpload(r *http.Request, maxSize int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return nil, "", errors.New("invalid multipart form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New(`multipart form must carry a "file" field`)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("failed to read uploaded file")
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", errors.New("failed to read request body")
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty request body")
	}
	return data, "", nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
