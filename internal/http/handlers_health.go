package httpx

import (
	"io"
	"net/http"
)

const healthResponse = `{"status":"ok"}`

// healthHandler serves /healthz for container liveness checks. It does not
// consult the session store or any backing service.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, healthResponse)
	}
}
