package main

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sushihentaime/lessonhub/internal/common"
	"github.com/sushihentaime/lessonhub/internal/lessonservice"
)

func (app *application) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(), zap.String("method", r.Method), zap.String("url", r.URL.RequestURI()))
}

func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	err := app.writeJSON(w, status, envelope{"error": message}, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message)
}

// databaseErrorResponse reports a storage failure. The database error itself
// is only exposed in development.
func (app *application) databaseErrorResponse(w http.ResponseWriter, r *http.Request, dbErr *common.DatabaseError) {
	app.logger.Error("database error",
		zap.String("method", r.Method),
		zap.String("url", r.URL.RequestURI()),
		zap.String("kind", string(dbErr.Kind)),
		zap.Error(dbErr))

	message := any("the server encountered a problem and could not process your request")
	if app.config.Environment == "development" {
		message = envelope{
			"message": message,
			"kind":    string(dbErr.Kind),
			"detail":  dbErr.Error(),
		}
	}
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "resource not found")
}

func (app *application) failedValidationErrorResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.writeErrorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "invalid or missing authentication token")
}

func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "you must be authenticated to access this resource")
}

func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusForbidden, "your user account doesn't have the necessary permissions to access this resource")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("the %s method is not supported for this resource", r.Method))
}

// serviceErrorResponse maps errors returned by the lesson service to HTTP
// responses.
func (app *application) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError
	var dbErr *common.DatabaseError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, lessonservice.ErrVersionNotFound):
		app.writeErrorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, common.ErrInvalidCursor):
		app.badRequestErrorResponse(w, r, err)
	case errors.Is(err, lessonservice.ErrCourseForeignKey):
		app.failedValidationErrorResponse(w, r, map[string]string{"course_id": "does not exist"})
	case errors.Is(err, lessonservice.ErrEditorForeignKey):
		app.invalidAuthenticationTokenResponse(w, r)
	case errors.As(err, &dbErr):
		app.databaseErrorResponse(w, r, dbErr)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
