package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/{userId}/event", deps.EventHandler.GetUserEvents).Methods("GET")

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event/free-slot", deps.EventHandler.FindFreeTimeSlot).Methods("POST")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/event/{eventId}/accept", deps.EventHandler.AcceptEvent).Methods("POST")
	r.HandleFunc("/api/event/{eventId}/decline", deps.EventHandler.DeclineEvent).Methods("POST")
}
