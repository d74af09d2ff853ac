package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/meetly/meetly/pkg/user"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {

	// Basic auth: resolve the caller and put it into the request context.
	// User registration is the only endpoint open to anonymous callers.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodPost && req.URL.Path == "/api/user" {
				next.ServeHTTP(w, req)
				return
			}

			username, password, ok := req.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="meetly"`)
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			u, err := deps.UserService.Authenticate(req.Context(), username, password)
			if err != nil {
				if errors.Is(err, user.ErrInvalidCredentials) {
					w.Header().Set("WWW-Authenticate", `Basic realm="meetly"`)
					http.Error(w, "invalid credentials", http.StatusUnauthorized)
					return
				}
				log.Errorf("failed to authenticate user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			ctx := user.WithUser(req.Context(), u)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
