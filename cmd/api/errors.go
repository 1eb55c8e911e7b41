package main

import "net/http"

// errorResponse is a generic helper for sending JSON-formatted error messages
// to the client with a given status code.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		app.logger.Error("Failed to write error response", "error", err, "method", r.Method, "uri", r.URL.RequestURI())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Error("Internal error", "error", err, "method", r.Method, "uri", r.URL.RequestURI())
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedValidationResponse sends one message per invalid field.
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string]string) {
	if err := writeJSON(w, http.StatusUnprocessableEntity, envelope{"errors": fieldErrors}, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, message)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}
