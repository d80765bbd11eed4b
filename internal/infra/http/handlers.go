package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/apu-builder/internal/domain/matrix"
	"github.com/Spok95/apu-builder/internal/export"
	"github.com/Spok95/apu-builder/internal/infra/backend"
	"github.com/Spok95/apu-builder/internal/workbench"
	"github.com/google/uuid"
)

const maxBody = 1 << 20

type api struct {
	wb  *workbench.Service
	log *slog.Logger
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /drafts", a.openDraft)
	mux.HandleFunc("GET /drafts/{id}", a.withSession(a.getDraft))
	mux.HandleFunc("DELETE /drafts/{id}", a.withSession(a.resetDraft))
	mux.HandleFunc("PUT /drafts/{id}/form", a.withSession(a.updateForm))
	mux.HandleFunc("PUT /drafts/{id}/rows", a.withSession(a.mirrorRows))
	mux.HandleFunc("POST /drafts/{id}/rows", a.withSession(a.addRow))
	mux.HandleFunc("PATCH /drafts/{id}/rows/{i}", a.withSession(a.editRow))
	mux.HandleFunc("DELETE /drafts/{id}/rows/{i}", a.withSession(a.deleteRow))
	mux.HandleFunc("POST /drafts/{id}/rows/{i}/quick-save", a.withSession(a.quickSave))
	mux.HandleFunc("POST /drafts/{id}/rows/{i}/catalog", a.withSession(a.addToCatalog))
	mux.HandleFunc("POST /drafts/{id}/rows/{i}/market-price", a.withSession(a.marketPrice))
	mux.HandleFunc("PUT /drafts/{id}/factors", a.withSession(a.setFactors))
	mux.HandleFunc("POST /drafts/{id}/suggest", a.withSession(a.suggest))
	mux.HandleFunc("POST /drafts/{id}/clarify", a.withSession(a.clarify))
	mux.HandleFunc("POST /drafts/{id}/save", a.withSession(a.saveMatrix))
	mux.HandleFunc("POST /drafts/{id}/concept", a.withSession(a.saveConcept))
	mux.HandleFunc("GET /drafts/{id}/export.xlsx", a.withSession(a.exportXLSX))
	mux.HandleFunc("POST /catalogs/reload", a.reloadCatalogs)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *workbench.Session)

func (a *api) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid draft id")
			return
		}
		s, err := a.wb.Get(r.Context(), id)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		h(w, r, s)
	}
}

func (a *api) openDraft(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ConceptID int64 `json:"concept_id"`
	}
	if r.ContentLength != 0 {
		if !decode(w, r, &in) {
			return
		}
	}
	s, err := a.wb.Open(r.Context(), in.ConceptID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

func (a *api) getDraft(w http.ResponseWriter, _ *http.Request, s *workbench.Session) {
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) resetDraft(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	if err := s.Reset(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) updateForm(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	var f workbench.ConceptForm
	if !decode(w, r, &f) {
		return
	}
	s.UpdateForm(r.Context(), f)
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) mirrorRows(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	var rows []matrix.Row
	if !decode(w, r, &rows) {
		return
	}
	a.respond(w, r, s, s.MirrorRows(r.Context(), rows))
}

func (a *api) addRow(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	var row matrix.Row
	if !decode(w, r, &row) {
		return
	}
	a.respond(w, r, s, s.AddRow(r.Context(), row))
}

func (a *api) editRow(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	i, ok := rowIndex(w, r)
	if !ok {
		return
	}
	var p matrix.Patch
	if !decode(w, r, &p) {
		return
	}
	a.respond(w, r, s, s.EditRow(r.Context(), i, p))
}

func (a *api) deleteRow(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	i, ok := rowIndex(w, r)
	if !ok {
		return
	}
	a.respond(w, r, s, s.DeleteRow(r.Context(), i))
}

func (a *api) quickSave(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	i, ok := rowIndex(w, r)
	if !ok {
		return
	}
	id, err := s.QuickSave(r.Context(), i)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id_insumo": id, "draft": s.View()})
}

func (a *api) addToCatalog(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	i, ok := rowIndex(w, r)
	if !ok {
		return
	}
	var f workbench.CatalogForm
	if !decode(w, r, &f) {
		return
	}
	id, err := s.AddToCatalog(r.Context(), i, f)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id_insumo": id, "draft": s.View()})
}

func (a *api) marketPrice(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	i, ok := rowIndex(w, r)
	if !ok {
		return
	}
	mp, applied, err := s.SuggestMarketPrice(r.Context(), i)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"precio_sugerido": mp.Price,
		"fuente":          mp.Source,
		"aplicado":        applied,
		"draft":           s.View(),
	})
}

func (a *api) setFactors(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	var f matrix.Factors
	if !decode(w, r, &f) {
		return
	}
	a.respond(w, r, s, s.SetFactors(r.Context(), f))
}

func (a *api) suggest(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	a.respond(w, r, s, s.Suggest(r.Context()))
}

func (a *api) clarify(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	qs, err := s.Clarify(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if qs == nil {
		qs = []backend.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"preguntas": qs})
}

func (a *api) saveMatrix(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	a.respond(w, r, s, s.SaveMatrix(r.Context()))
}

func (a *api) saveConcept(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	var f workbench.ConceptForm
	if !decode(w, r, &f) {
		return
	}
	if _, err := s.SaveConcept(r.Context(), f); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *api) exportXLSX(w http.ResponseWriter, r *http.Request, s *workbench.Session) {
	name := export.FileName(s.Form().Key, time.Now())
	a.sendFile(w, r, name, xlsxType, s.Export)
}

// sendFile собирает файл в памяти: при ошибке клиент получает код ошибки, а не обрезанный файл
func (a *api) sendFile(w http.ResponseWriter, r *http.Request, name, contentType string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		a.fail(w, r, fmt.Errorf("export %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *api) reloadCatalogs(w http.ResponseWriter, r *http.Request) {
	if err := a.wb.ReloadCatalogs(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) respond(w http.ResponseWriter, r *http.Request, s *workbench.Session, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= 500 {
		a.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		a.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, workbench.ErrNotFound), errors.Is(err, matrix.ErrRowIndex):
		return http.StatusNotFound
	case errors.Is(err, matrix.ErrValidation), errors.Is(err, workbench.ErrInvalidConcept):
		return http.StatusBadRequest
	case errors.Is(err, workbench.ErrNeedsDetails):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workbench.ErrNotPending), errors.Is(err, workbench.ErrNotApplicable),
		errors.Is(err, matrix.ErrRowChanged):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func rowIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("i"))
	if err != nil || i < 0 {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return 0, false
	}
	return i, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
