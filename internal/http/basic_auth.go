package http

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

func (s *Server) basicAuth(next http.Handler) http.Handler {
	auth := s.opts.BasicAuth
	baseURL := strings.TrimSuffix(s.opts.BaseURL, "/")

	expectedUsername := sha256.Sum256([]byte(auth.Username))
	expectedPassword := sha256.Sum256([]byte(auth.Password))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range auth.Public {
			if strings.HasPrefix(r.URL.Path, baseURL+prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		username, password, ok := r.BasicAuth()
		if ok {
			usernameHash := sha256.Sum256([]byte(username))
			passwordHash := sha256.Sum256([]byte(password))

			usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsername[:]) == 1
			passwordMatch := subtle.ConstantTimeCompare(passwordHash[:], expectedPassword[:]) == 1

			if usernameMatch && passwordMatch {
				next.ServeHTTP(w, r)
				return
			}

			slog.WarnContext(r.Context(), "invalid credentials", slog.String("username", username), slog.String("remoteAddr", r.RemoteAddr))
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="corpus-indexer", charset="UTF-8"`)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}
