package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/settings", s.GetSettingsHandler).Methods("GET")
	r.HandleFunc("/settings/{key}", s.UpdateSettingHandler).Methods("PUT")
	r.HandleFunc("/settings/{key}", s.ResetSettingHandler).Methods("DELETE")

	r.HandleFunc("/sessions", s.StartSessionHandler).Methods("POST")
	r.HandleFunc("/sessions/{id}/scans", s.ScanHandler).Methods("POST")
	r.HandleFunc("/sessions/{id}", s.CancelSessionHandler).Methods("DELETE")

	r.HandleFunc("/captures", s.ListCapturesHandler).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	return r
}
