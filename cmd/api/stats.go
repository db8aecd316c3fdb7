package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pefman/w40k-volley/internal/stats"
)

// GET /api/stats/runs
func GetRunsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, stats.GetRuns())
}

// GET /api/stats/runs/{id}
func GetRunHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := stats.GetRun(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, run)
}

// GET /api/stats/max-volley/today
func GetMaxVolleyTodayHandler(w http.ResponseWriter, r *http.Request) {
	run, ok := stats.GetMaxVolleyToday()
	if !ok {
		writeJSON(w, map[string]interface{}{})
		return
	}
	writeJSON(w, run)
}
