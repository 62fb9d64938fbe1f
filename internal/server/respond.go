package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pefman/cardstats/internal/dataset"
)

const maxBodyBytes = 1 << 20

var errNoBody = errors.New("request body is empty")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": msg,
		"status":  code,
	})
}

// decodeFields reads a JSON object body. An absent, blank or null body
// yields errNoBody.
func decodeFields(w http.ResponseWriter, r *http.Request) (dataset.Fields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errNoBody
	}
	var fields dataset.Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		if errors.Is(err, dataset.ErrUnsupportedValue) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if fields == nil {
		return nil, errNoBody
	}
	return fields, nil
}
