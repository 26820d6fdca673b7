package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recovery-cli/internal/derive"
	"github.com/sells-group/recovery-cli/internal/formula"
	"github.com/sells-group/recovery-cli/internal/ingest"
	"github.com/sells-group/recovery-cli/internal/ledger"
	"github.com/sells-group/recovery-cli/internal/model"
	"github.com/sells-group/recovery-cli/internal/report"
)

type formulaRequest struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

type formulaError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Offset *int   `json:"offset,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps service errors onto status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrUnknownField), errors.Is(err, ledger.ErrDerivedField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("api: ledger action failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Schema)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Table(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.SortedByDate())
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	entry, err := decodeFields(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(entry) == 0 {
		writeError(w, http.StatusBadRequest, "entry is empty")
		return
	}
	row, err := s.svc.Add(r.Context(), entry)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) editRecord(w http.ResponseWriter, r *http.Request) {
	changes, err := decodeFields(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := s.svc.Edit(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// decodeFields reads a JSON object of field values. Strings pass through,
// numbers are formatted in decimal, and null clears the field.
func decodeFields(body io.Reader) (map[string]string, error) {
	var raw map[string]any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, eris.New("invalid request body")
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case string:
			out[k] = x
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			return nil, eris.Errorf("field %q: want a string or number", k)
		}
	}
	return out, nil
}

func (s *Server) removeRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// importFiles accepts one or more multipart "file" parts.
func (s *Server) importFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}

	dir, err := os.MkdirTemp("", "recovery-import-*")
	if err != nil {
		writeLedgerError(w, eris.Wrap(err, "api: temp dir"))
		return
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	paths := make([]string, 0, len(headers))
	for i, h := range headers {
		ext := strings.ToLower(filepath.Ext(h.Filename))
		if ext != ".csv" && ext != ".xlsx" {
			writeError(w, http.StatusBadRequest, "unsupported file type "+ext)
			return
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d%s", i, ext))
		if err := saveUpload(h, path); err != nil {
			writeLedgerError(w, err)
			return
		}
		paths = append(paths, path)
	}

	tables, err := ingest.ReadFiles(r.Context(), paths, s.opts.Import)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.svc.Import(r.Context(), tables...)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func saveUpload(h *multipart.FileHeader, path string) error {
	src, err := h.Open()
	if err != nil {
		return eris.Wrap(err, "api: open upload")
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "api: create upload file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close() //nolint:errcheck
		return eris.Wrap(err, "api: copy upload")
	}
	return eris.Wrap(dst.Close(), "api: close upload file")
}

func (s *Server) addFormula(w http.ResponseWriter, r *http.Request) {
	var req formulaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.svc.AddFormula(r.Context(), req.Name, req.Expression)
	if err != nil {
		var inv *formula.InvalidError
		if errors.As(err, &inv) {
			body := formulaError{Error: "formula invalid", Reason: inv.Reason}
			if inv.Pos >= 0 {
				body.Offset = &inv.Pos
			}
			writeJSON(w, http.StatusUnprocessableEntity, body)
			return
		}
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.SortedByDate())
}

func (s *Server) recompute(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Recompute(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Table(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(t))
}

// trend takes optional from, to (any accepted date form) and a
// comma-separated metrics list.
func (s *Server) trend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := queryDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var metrics []string
	if m := strings.TrimSpace(q.Get("metrics")); m != "" {
		for _, part := range strings.Split(m, ",") {
			if part = strings.TrimSpace(part); part != "" {
				metrics = append(metrics, part)
			}
		}
	}

	t, err := s.svc.Table(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	series, err := report.Trend(t, from, to, metrics)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func queryDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	d, ok := derive.ParseDate(s).Time()
	if !ok {
		return time.Time{}, eris.Errorf("invalid date %q", s)
	}
	return d, nil
}
