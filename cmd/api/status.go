package main

import (
	"errors"
	"net/http"

	"leadripper/internal/store"
)

func (a *api) statusHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	job, err := a.jobs.GetJob(r.Context(), jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		a.log.WithError(err).WithField("job_id", jobID).Error("status lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// jobIDParam enforces GET and a non-empty ?id=, writing the error itself.
func jobIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return "", false
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing 'id' parameter")
		return "", false
	}
	return id, true
}
