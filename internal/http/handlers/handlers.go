// Package handlers implements the catalog's HTTP endpoints. Responses are
// JSON; page endpoints return the page's data together with the freshly
// issued state token so the front end can embed it in forms.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
)

// Literal response bodies. These exact strings are part of the observable
// contract.
const (
	msgUnauthorized    = "Unauthorized!!!"
	msgInvalidItem     = "Invalid item"
	msgInvalidCategory = "Invalid category"
)

// respond writes v as a JSON body with the given status. Rejections pass a
// bare string, which encodes to a quoted JSON string.
func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func serverError(w http.ResponseWriter, logger *log.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	respond(w, http.StatusInternalServerError, "Internal server error")
}
