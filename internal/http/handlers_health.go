package httpx

import (
	"io"
	"net/http"
)

const healthBody = `{"status":"ok"}`

// healthHandler answers liveness probes. It sits outside the gate and never
// touches the session store, so a Redis outage does not restart the gateway.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, healthBody)
}
