package controller

import (
	"net/http"
)

// HandleSopr returns the daily ratio series for a date range.
// Endpoint: GET /v1/sopr?start=<YYYY-MM-DD>&end=<YYYY-MM-DD>
func (c *Controller) HandleSopr(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := rng.key("sopr")
	if payload, ok := c.cached(key); ok {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	rows, err := c.App.MetricsDB.GetDailyMetrics(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	payload := map[string]interface{}{
		"data": rows,
	}
	c.store(key, payload)

	writeJSON(w, http.StatusOK, payload)
}
