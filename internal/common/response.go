package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
	// Warning is set when the request succeeded in memory but persistence failed.
	Warning string `json:"warning,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr picks the status code from the error chain.
func RespondWithErr(w http.ResponseWriter, err error) {
	RespondWithError(w, HTTPStatusFromError(err), err.Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithDownload writes a JSON attachment with the given file name.
func RespondWithDownload(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// WarningHeader carries the persistence error of a request that succeeded
// in memory only.
const WarningHeader = "X-ACM-Warning"

// RespondWithResult writes payload when err is nil or only a storage
// failure, adding WarningHeader in the latter case. Any other error is
// written as an error response.
func RespondWithResult(w http.ResponseWriter, code int, payload interface{}, err error) {
	if err != nil && !IsSavedInSessionOnly(err) {
		RespondWithErr(w, err)
		return
	}
	if err != nil {
		w.Header().Set(WarningHeader, err.Error())
	}
	RespondWithJSON(w, code, payload)
}
