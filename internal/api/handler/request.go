package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
)

// maxBodyBytes bounds JSON bodies, imports included.
const maxBodyBytes = 16 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %v: %w", err, common.ErrBadRequest)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %v: %w", err, common.ErrBadRequest)
	}
	return raw, nil
}

// queryInt returns nil when the parameter is absent or not a number.
func queryInt(r *http.Request, key string) *int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}

func queryList(r *http.Request, key string) []string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func respondNoContent(w http.ResponseWriter, err error) {
	if err != nil && !common.IsSavedInSessionOnly(err) {
		common.RespondWithErr(w, err)
		return
	}
	if err != nil {
		w.Header().Set(common.WarningHeader, err.Error())
	}
	w.WriteHeader(http.StatusNoContent)
}
