// Package errors writes error responses that never leak internal detail to
// the client while logging the cause with the chi request id.
package errors

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func logf(r *http.Request, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		log.Printf("[%s] RequestID=%s: %s", level, requestID, msg)
		return
	}
	log.Printf("[%s] %s", level, msg)
}

// InternalError logs err and responds 500 with a generic body.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logf(r, "ERROR", "%s: %v", message, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// BadRequestError logs err and responds 400 with clientMessage.
func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	logf(r, "WARN", "bad request: %v", err)
	http.Error(w, clientMessage, http.StatusBadRequest)
}

// NotFound responds 404 for a missing event or route parameter.
func NotFound(w http.ResponseWriter, r *http.Request, what string) {
	logf(r, "INFO", "%s not found", what)
	http.Error(w, what+" not found", http.StatusNotFound)
}

func LogError(r *http.Request, message string, err error) {
	logf(r, "ERROR", "%s: %v", message, err)
}

func LogInfo(r *http.Request, message string) {
	logf(r, "INFO", "%s", message)
}
