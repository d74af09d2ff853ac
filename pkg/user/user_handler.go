package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetly/meetly/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{userService: userService}
}

// CreateUser godoc
// @Summary Register a new user
// @Tags User
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Username taken"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Debug("Creating user")

	var request CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	if request.Username == "" || request.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Username and password are required"}); encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	created, err := h.userService.CreateUser(r.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			w.WriteHeader(http.StatusConflict)
			if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: err.Error()}); encodeErr != nil {
				http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
			}
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(UserDTO{ID: created.ID.String(), Username: created.Username}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
