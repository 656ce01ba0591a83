package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/phonghmnguyen/atm/ledger"
	"github.com/phonghmnguyen/atm/telemetry"
)

// retryAfterSeconds is advertised to clients that hit a busy account
const retryAfterSeconds = 1

func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		telemetry.Log().Errorf("[%s %s] failed to encode response: %v", r.Method, r.URL.Path, err)
	}
}

func WriteJSONErrorResponse(w http.ResponseWriter, r *http.Request, e *HTTPError) {
	if e.Kind == ledger.KindBusy {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	if e.Status >= http.StatusInternalServerError {
		telemetry.Log().Errorf("[%s %s] %v", r.Method, r.URL.Path, e.Error)
	}

	WriteJSONResponse(w, r, e.Status, e.Payload())
}
