package main

import (
	"net/http"
)

func (a *api) resultsHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	results, err := a.jobs.ListResults(r.Context(), jobID)
	if err != nil {
		a.log.WithError(err).WithField("job_id", jobID).Error("results lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch results")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (a *api) statsHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := jobIDParam(w, r)
	if !ok {
		return
	}

	stats, err := a.jobs.JobStats(r.Context(), jobID)
	if err != nil {
		a.log.WithError(err).WithField("job_id", jobID).Error("stats lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
