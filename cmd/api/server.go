package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"leadripper/internal/models"
	"leadripper/internal/queue"
	"leadripper/internal/store"
)

type emailValidator interface {
	Validate(ctx context.Context, email string, opts models.ValidationOptions) (models.ValidationResult, error)
}

type jobStore interface {
	CreateJob(ctx context.Context, id string, total int, checkSMTP bool) error
	GetJob(ctx context.Context, id string) (store.Job, error)
	ListResults(ctx context.Context, jobID string) ([]store.ResultRow, error)
	JobStats(ctx context.Context, jobID string) (store.Stats, error)
}

type taskQueue interface {
	Enqueue(ctx context.Context, tasks ...queue.Task) error
}

// api holds the handler dependencies. jobs and tasks are nil when bulk
// processing is not configured.
type api struct {
	engine   emailValidator
	jobs     jobStore
	tasks    taskQueue
	apiKey   string
	log      logrus.FieldLogger
	validate *validator.Validate
}

func newAPI(engine emailValidator, jobs jobStore, tasks taskQueue, apiKey string, log logrus.FieldLogger) *api {
	return &api{
		engine:   engine,
		jobs:     jobs,
		tasks:    tasks,
		apiKey:   apiKey,
		log:      log,
		validate: validator.New(),
	}
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/validate", enableCORS(a.validateHandler))
	mux.HandleFunc("/upload", enableCORS(a.requireAPIKey(a.requireBulk(a.uploadHandler))))
	mux.HandleFunc("/status", enableCORS(a.requireAPIKey(a.requireBulk(a.statusHandler))))
	mux.HandleFunc("/results", enableCORS(a.requireAPIKey(a.requireBulk(a.resultsHandler))))
	mux.HandleFunc("/stats", enableCORS(a.requireAPIKey(a.requireBulk(a.statsHandler))))
	mux.HandleFunc("/info", enableCORS(a.infoHandler))
	return mux
}

// enableCORS sets CORS headers and answers preflight requests.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (a *api) requireBulk(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.jobs == nil || a.tasks == nil {
			writeError(w, http.StatusServiceUnavailable, "Bulk processing is not configured")
			return
		}
		next(w, r)
	}
}

func (a *api) infoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "LeadRipper Email Validation",
		"version": "1.0.0",
		"capabilities": []string{
			"Syntax validation",
			"Disposable domain detection",
			"Role account detection",
			"MX / CNAME / A-record reachability",
			"SMTP mailbox probe",
			"Bulk CSV jobs",
		},
		"bulk": a.jobs != nil && a.tasks != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
