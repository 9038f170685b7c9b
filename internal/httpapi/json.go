package httpapi

import (
    "encoding/json"
    "errors"
    "io"
    "net/http"
)

// maxBodyBytes caps request bodies; every request DTO is a handful of short fields.
const maxBodyBytes = 1 << 16

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object into dst and validates it. It writes
// the error response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
    dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
    dec.DisallowUnknownFields()
    if err := dec.Decode(dst); err != nil {
        if errors.Is(err, io.EOF) {
            badRequest(w, "request body is empty")
            return false
        }
        badRequest(w, "invalid JSON: "+err.Error())
        return false
    }
    if err := validate.Struct(dst); err != nil {
        validationFailed(w, err)
        return false
    }
    return true
}
