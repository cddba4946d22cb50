package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// reconciler is the part of the reconcile service the HTTP surface drives
type reconciler interface {
	Run() error
	GetMetrics() string
}

// inbox is the part of the notification center the HTTP surface exposes
type inbox interface {
	Active() []models.Notification
	Dismiss(id string) bool
}

func newRouter(r reconciler, n inbox) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/state", stateHandler(r)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(r)).Methods("POST")
	router.HandleFunc("/notifications", notificationsHandler(n)).Methods("GET")
	router.HandleFunc("/notifications/{id}", dismissHandler(n)).Methods("DELETE")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func stateHandler(rec reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rec.GetMetrics()))
	}
}

func triggerHandler(rec reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := rec.Run(); err != nil {
				logrus.Errorf("Manual reconcile trigger failed: %v", err)
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message":"Reconcile triggered"}`))
	}
}

func notificationsHandler(n inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(n.Active()); err != nil {
			logrus.Errorf("Failed to encode notifications: %v", err)
		}
	}
}

func dismissHandler(n inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !n.Dismiss(mux.Vars(r)["id"]) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
