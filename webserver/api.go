package webserver

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"whitelister/distribution"
	"whitelister/storage"
)

type ApiError struct {
	Error string `json:"error"`
}

func apiError(w http.ResponseWriter, msg string, code int) {
	e, _ := json.Marshal(ApiError{msg})
	http.Error(w, string(e), code)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Unable to encode API response")
	}
}

func (ws *WebServer) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]bool{"ok": true})
}

//
// Report of the most recent run
// ------------------------------------------------------------------------------------
func (ws *WebServer) getReport(w http.ResponseWriter, r *http.Request) {

	log.Debug("API - getReport")

	report := ws.currentReport()
	if report == nil {
		apiError(w, "No run has finished", http.StatusNotFound)
		return
	}

	writeJSON(w, struct {
		*distribution.Report
		ExitCode int `json:"exitCode"`
	}{report, report.ExitCode()})
}

//
// Commit ledger contents, keyed by roster fingerprint
// ------------------------------------------------------------------------------------
func (ws *WebServer) getLedger(w http.ResponseWriter, r *http.Request) {

	log.Debug("API - getLedger")

	if ws.ledger == nil {
		writeJSON(w, map[string]storage.CommitRecord{})
		return
	}

	commits, err := ws.ledger.GetCommitsAll()
	if err != nil {
		log.WithError(err).Error("Unable to read commit ledger")
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, commits)
}
