// Package handlers implements the DockView HTTP endpoints.
package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/turtacn/dockview/pkg/errors"
)

// DefaultMaxUpload bounds structure and SDF uploads when no limit is configured.
const DefaultMaxUpload int64 = 64 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, ErrorResponse{Code: string(code), Message: message})
}

// writeAppError maps application errors to HTTP status codes. Internal
// failures are masked; tool and dependency failures keep their message.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if status == http.StatusInternalServerError {
		writeError(w, status, code, errors.DefaultMessageForCode(code))
		return
	}

	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid JSON body")
	}
	return nil
}

// upload is a file received either as a raw body or a multipart "file" part.
type upload struct {
	Name    string
	Content string
}

// multipartSlack covers boundaries, part headers and small form fields.
const multipartSlack = 64 << 10

// readUpload accepts either a multipart form with a "file" part or the raw
// request body. The name falls back to the "name" query parameter.
func readUpload(r *http.Request, maxBytes int64) (*upload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	name := r.URL.Query().Get("name")

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		// ParseMultipartForm only bounds memory; larger parts spill to disk.
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+multipartSlack)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid multipart upload")
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "multipart field \"file\" is required")
		}
		defer f.Close()
		b, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read upload")
		}
		if int64(len(b)) > maxBytes {
			return nil, errors.Newf(errors.ErrCodeBadRequest, "upload exceeds %d bytes", maxBytes)
		}
		if name == "" {
			name = filepath.Base(hdr.Filename)
		}
		return &upload{Name: name, Content: string(b)}, nil
	}

	b, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read request body")
	}
	return &upload{Name: name, Content: string(b)}, nil
}

// queryBool parses a boolean query parameter; absent or malformed values yield def.
func queryBool(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
