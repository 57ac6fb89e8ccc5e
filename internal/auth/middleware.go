/*-------------------------------------------------------------------------
 *
 * SQLite Memory Bank MCP Server
 *
 * Copyright (c) 2025, Robert Meisner
 * This software is released under The MIT License
 *
 *-------------------------------------------------------------------------
 */

package auth

import (
	"net/http"
	"strings"
)

// HealthCheckPath bypasses authentication so load balancers can probe liveness
const HealthCheckPath = "/health"

// Middleware creates an HTTP middleware that validates bearer API tokens
func Middleware(tokenStore *TokenStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == HealthCheckPath {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid Authorization header format. Expected: Bearer <token>", http.StatusUnauthorized)
				return
			}

			if !tokenStore.Validate(parts[1]) {
				// Generic error to the client, no internal details
				http.Error(w, "Invalid or unknown token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
