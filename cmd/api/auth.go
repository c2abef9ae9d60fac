package main

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAPIKey checks the Bearer token before letting a request through.
// An unset key locks the endpoint with a 500 so the misconfiguration is
// obvious at deploy time.
func (a *api) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.apiKey == "" {
			writeError(w, http.StatusInternalServerError, "Server configuration error: API_SECRET_KEY not set")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(a.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing API Key")
			return
		}

		next(w, r)
	}
}
