package main

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"leadripper/internal/logging"
	"leadripper/internal/models"
	"leadripper/internal/queue"
)

type uploadResponse struct {
	JobID     string `json:"jobId"`
	TotalRows int    `json:"totalRows"`
	Message   string `json:"message"`
}

func (a *api) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or malformed")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'file' parameter in form data")
		return
	}
	defer file.Close()

	emails, err := readEmails(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid CSV format")
		return
	}
	if len(emails) == 0 {
		writeError(w, http.StatusBadRequest, "CSV is empty")
		return
	}

	opts := models.DefaultOptions()
	if v := r.FormValue("checkSMTP"); v != "" {
		checkSMTP, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'checkSMTP' value")
			return
		}
		opts.CheckSMTP = checkSMTP
	}

	jobID := uuid.New().String()
	ctx := r.Context()

	if err := a.jobs.CreateJob(ctx, jobID, len(emails), opts.CheckSMTP); err != nil {
		logging.LogError(a.log, "create_job", err, map[string]interface{}{"job_id": jobID})
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	tasks := make([]queue.Task, 0, len(emails))
	for _, e := range emails {
		tasks = append(tasks, queue.Task{JobID: jobID, Email: e, Options: opts})
	}
	if err := a.tasks.Enqueue(ctx, tasks...); err != nil {
		logging.LogError(a.log, "enqueue_job", err, map[string]interface{}{"job_id": jobID})
		writeError(w, http.StatusInternalServerError, "Failed to queue job")
		return
	}

	a.log.WithField("job_id", jobID).WithField("rows", len(emails)).Info("job created")
	writeJSON(w, http.StatusOK, uploadResponse{
		JobID:     jobID,
		TotalRows: len(emails),
		Message:   "Job created successfully. Processing started.",
	})
}

// readEmails takes the first column of every row, skipping blanks and a
// leading "email" header.
func readEmails(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var emails []string
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		v := strings.TrimSpace(record[0])
		if v == "" || (first && strings.EqualFold(v, "email")) {
			continue
		}
		emails = append(emails, v)
	}
	return emails, nil
}
