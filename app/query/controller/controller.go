package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/utxolens/soprx/app/query/types"
)

type Controller struct {
	App *types.App

	cache *xsync.Map[string, cacheEntry]
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App:   app,
		cache: xsync.NewMap[string, cacheEntry](),
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/healthz", http.HandlerFunc(c.HandleHealth)).Methods("GET")

	r.HandleFunc("/v1/sopr", c.HandleSopr).Methods("GET")
	r.HandleFunc("/v1/prices", c.HandlePrices).Methods("GET")

	return r, nil
}

// WithCORS wraps a handler with permissive CORS headers for browser dashboards.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
