package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	router.HandlerFunc(http.MethodGet, "/v1/courses/:id/lessons", app.listCourseLessonsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/courses/:id/lessons", app.requireEditor(app.createLessonHandler))

	router.HandlerFunc(http.MethodGet, "/v1/lessons/:id", app.getLessonHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/lessons/:id", app.requireEditor(app.updateLessonHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/lessons/:id", app.requireEditor(app.deleteLessonHandler))
	router.HandlerFunc(http.MethodGet, "/v1/lessons/:id/versions", app.listLessonVersionsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/lessons/:id/versions/:version/revert", app.requireEditor(app.revertLessonHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.authenticate(app.rateLimit(router)))))
}
