package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"webcheck/internal/report"
	"webcheck/internal/store"
)

// handleListRuns lists runs, newest first, optionally for one project.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), r.URL.Query().Get("project"), limit)
	if err != nil {
		jsonError(w, "failed to list runs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, run)
}

// handleFindings lists the findings of a run. The file, category, check and
// severity query parameters filter the result.
func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	findings, err := s.store.Findings(r.Context(), run.ID, store.FindingFilter{
		File:     q.Get("file"),
		Category: q.Get("category"),
		Check:    q.Get("check"),
		Severity: q.Get("severity"),
	})
	if err != nil {
		jsonError(w, "failed to list findings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if findings == nil {
		findings = []report.Finding{}
	}
	writeJSON(w, map[string]any{"run_id": run.ID, "findings": findings})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}
	files, err := s.store.Files(r.Context(), run.ID)
	if err != nil {
		jsonError(w, "failed to list files: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []report.Source{}
	}
	writeJSON(w, map[string]any{"run_id": run.ID, "files": files})
}

// handleReport renders a stored run like the CLI does. The format query
// parameter selects text, json, markdown or html (the default).
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.run(w, r)
	if !ok {
		return
	}
	format := report.FormatHTML
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := report.ParseFormat(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	findings, err := s.store.Findings(r.Context(), run.ID, store.FindingFilter{})
	if err != nil {
		jsonError(w, "failed to list findings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	rep := &report.Report{
		RunID:     run.ID,
		Project:   run.Project,
		StartedAt: run.StartedAt,
		Duration:  time.Duration(run.DurationMS) * time.Millisecond,
		Files:     run.Files,
		Bytes:     run.Bytes,
		Changed:   run.Changed,
		Findings:  findings,
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if err := report.Write(w, rep, format); err != nil {
		s.log.Error("failed to render report", "run_id", run.ID, "error", err)
	}
}

var contentTypes = map[report.Format]string{
	report.FormatText:     "text/plain; charset=utf-8",
	report.FormatJSON:     "application/json",
	report.FormatMarkdown: "text/markdown; charset=utf-8",
	report.FormatHTML:     "text/html; charset=utf-8",
}

// run loads the run named by the URL, answering the request itself when
// that fails.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (store.Run, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
	if err != nil {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return store.Run{}, false
	}
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "run not found", http.StatusNotFound)
		return store.Run{}, false
	}
	if err != nil {
		jsonError(w, "failed to load run: "+err.Error(), http.StatusInternalServerError)
		return store.Run{}, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
