package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"leadripper/internal/logging"
	"leadripper/internal/models"
)

const maxBodyBytes = 1 << 16

type validateRequest struct {
	Email   string          `json:"email" validate:"required"`
	Options *requestOptions `json:"options"`
}

// requestOptions uses pointers so an omitted field keeps its default.
type requestOptions struct {
	CheckSMTP      *bool `json:"checkSMTP"`
	SkipDisposable *bool `json:"skipDisposable"`
	SkipRoleBased  *bool `json:"skipRoleBased"`
}

func (o *requestOptions) resolve() models.ValidationOptions {
	opts := models.DefaultOptions()
	if o == nil {
		return opts
	}
	if o.CheckSMTP != nil {
		opts.CheckSMTP = *o.CheckSMTP
	}
	if o.SkipDisposable != nil {
		opts.SkipDisposable = *o.SkipDisposable
	}
	if o.SkipRoleBased != nil {
		opts.SkipRoleBased = *o.SkipRoleBased
	}
	return opts
}

func (a *api) validateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req validateRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	// an empty body is treated as {}
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Email address is required")
		return
	}

	start := time.Now()
	result, err := a.engine.Validate(r.Context(), req.Email, req.Options.resolve())
	if err != nil {
		logging.LogError(a.log, "validate_email", err, map[string]interface{}{"email": req.Email})
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error",
			"message": err.Error(),
		})
		return
	}
	result.Duration = time.Since(start).String()

	writeJSON(w, http.StatusOK, result)
}
