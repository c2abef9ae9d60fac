package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadripper/internal/models"
	"leadripper/internal/queue"
	"leadripper/internal/store"
)

const testKey = "secret-key"

type stubEngine struct {
	err      error
	lastOpts models.ValidationOptions
}

func (s *stubEngine) Validate(ctx context.Context, email string, opts models.ValidationOptions) (models.ValidationResult, error) {
	s.lastOpts = opts
	if s.err != nil {
		return models.ValidationResult{}, s.err
	}
	res := models.NewResult(email)
	res.Checks.Syntax = true
	res.Score = 80
	res.Valid = true
	res.Recommendation = models.RecommendationGood
	return res, nil
}

type stubJobs struct {
	created map[string]int
	stats   store.Stats
}

func (s *stubJobs) CreateJob(ctx context.Context, id string, total int, checkSMTP bool) error {
	if s.created == nil {
		s.created = map[string]int{}
	}
	s.created[id] = total
	return nil
}

func (s *stubJobs) GetJob(ctx context.Context, id string) (store.Job, error) {
	if total, ok := s.created[id]; ok {
		return store.Job{ID: id, Status: store.StatusPending, TotalCount: total}, nil
	}
	return store.Job{}, store.ErrJobNotFound
}

func (s *stubJobs) ListResults(ctx context.Context, jobID string) ([]store.ResultRow, error) {
	return []store.ResultRow{}, nil
}

func (s *stubJobs) JobStats(ctx context.Context, jobID string) (store.Stats, error) {
	return s.stats, nil
}

type stubQueue struct {
	tasks []queue.Task
}

func (s *stubQueue) Enqueue(ctx context.Context, tasks ...queue.Task) error {
	s.tasks = append(s.tasks, tasks...)
	return nil
}

func newTestAPI(engine emailValidator, jobs jobStore, tasks taskQueue) http.Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return newAPI(engine, jobs, tasks, testKey, log).routes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestValidateHandler(t *testing.T) {
	engine := &stubEngine{}
	h := newTestAPI(engine, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"email":"john@acme.com"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	body := decodeBody(t, rec)
	assert.Equal(t, "john@acme.com", body["email"])
	assert.Equal(t, float64(80), body["score"])
	assert.Equal(t, []interface{}{}, body["warnings"])
	assert.Equal(t, models.DefaultOptions(), engine.lastOpts)
}

func TestValidateHandlerPartialOptions(t *testing.T) {
	engine := &stubEngine{}
	h := newTestAPI(engine, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/validate",
		strings.NewReader(`{"email":"john@acme.com","options":{"checkSMTP":true}}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, engine.lastOpts.CheckSMTP)
	assert.True(t, engine.lastOpts.SkipDisposable, "omitted option keeps its default")
	assert.False(t, engine.lastOpts.SkipRoleBased)
}

func TestValidateHandlerErrors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		body    string
		engine  *stubEngine
		status  int
		wantErr string
	}{
		{"missing email", http.MethodPost, `{}`, &stubEngine{}, http.StatusBadRequest, "Email address is required"},
		{"empty body", http.MethodPost, ``, &stubEngine{}, http.StatusBadRequest, "Email address is required"},
		{"bad json", http.MethodPost, `{"email":`, &stubEngine{}, http.StatusBadRequest, "Invalid JSON body"},
		{"wrong method", http.MethodGet, ``, &stubEngine{}, http.StatusMethodNotAllowed, "Method not allowed"},
		{"engine failure", http.MethodPost, `{"email":"a@b.com"}`, &stubEngine{err: errors.New("resolve b.com: context deadline exceeded")}, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestAPI(tt.engine, nil, nil).ServeHTTP(rec, httptest.NewRequest(tt.method, "/validate", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody(t, rec)["error"])
		})
	}
}

func TestValidateHandlerInternalErrorCarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	engine := &stubEngine{err: errors.New("resolve b.com: context deadline exceeded")}
	newTestAPI(engine, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"email":"a@b.com"}`)))

	assert.Equal(t, "resolve b.com: context deadline exceeded", decodeBody(t, rec)["message"])
}

func TestPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestAPI(&stubEngine{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/validate", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func uploadRequest(t *testing.T, csv string, checkSMTP string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	if checkSMTP != "" {
		require.NoError(t, mw.WriteField("checkSMTP", checkSMTP))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func TestUploadCreatesAndEnqueues(t *testing.T) {
	jobs := &stubJobs{}
	q := &stubQueue{}
	h := newTestAPI(&stubEngine{}, jobs, q)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "email,name\njohn@acme.com,John\n\ninfo@acme.com,\n", "true"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.TotalRows)
	assert.Equal(t, 2, jobs.created[resp.JobID])
	require.Len(t, q.tasks, 2)
	assert.Equal(t, "john@acme.com", q.tasks[0].Email)
	assert.Equal(t, resp.JobID, q.tasks[1].JobID)
	assert.True(t, q.tasks[1].Options.CheckSMTP)

	// the job is visible through /status
	statusReq := httptest.NewRequest(http.MethodGet, "/status?id="+resp.JobID, nil)
	statusReq.Header.Set("Authorization", "Bearer "+testKey)
	statusRec := httptest.NewRecorder()
	h.ServeHTTP(statusRec, statusReq)
	assert.Equal(t, http.StatusOK, statusRec.Code)
}

func TestUploadRejectsEmptyCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestAPI(&stubEngine{}, &stubJobs{}, &stubQueue{}).ServeHTTP(rec, uploadRequest(t, "email\n", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CSV is empty", decodeBody(t, rec)["error"])
}

func TestBulkEndpointsRequireKey(t *testing.T) {
	h := newTestAPI(&stubEngine{}, &stubJobs{}, &stubQueue{})

	for _, path := range []string{"/status?id=x", "/results?id=x", "/stats?id=x"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer wrong")
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestStatusNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status?id=missing", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	newTestAPI(&stubEngine{}, &stubJobs{}, &stubQueue{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsHandler(t *testing.T) {
	jobs := &stubJobs{stats: store.NewStats(4, 3, 1, 2, 77.5)}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats?id=job", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	newTestAPI(&stubEngine{}, jobs, &stubQueue{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(75), body["verificationRate"])
	assert.Equal(t, float64(78), body["averageScore"])
}

func TestBulkDisabledWithoutStore(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/results?id=x", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	newTestAPI(&stubEngine{}, nil, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMissingAPIKeyConfig(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := newAPI(&stubEngine{}, &stubJobs{}, &stubQueue{}, "", log).routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status?id=x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
