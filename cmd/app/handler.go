package main

import (
	"fmt"
	"net/http"

	"github.com/sushihentaime/lessonhub/internal/lessonservice"
)

func (app *application) createLessonHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	var input lessonservice.CreateLessonRequest
	if err := app.parseJSON(w, r, &input); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	input.CourseID = courseID

	id := app.getIdentityContext(r)

	lesson, err := app.lessonService.CreateLesson(r.Context(), &input, id.UserID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/lessons/%d", lesson.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"lesson": lesson}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	view, err := app.lessonService.GetLesson(r.Context(), lessonID, app.getIdentityContext(r).viewer())
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"lesson": view}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	var patch lessonservice.LessonPatch
	if err := app.parseJSON(w, r, &patch); err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	lesson, err := app.lessonService.UpdateLesson(r.Context(), lessonID, &patch, app.getIdentityContext(r).UserID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"lesson": lesson}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	err = app.lessonService.DeleteLesson(r.Context(), lessonID, app.getIdentityContext(r).UserID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "lesson successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listLessonVersionsHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	// the ledger is visible to whoever may see the lesson
	if _, err := app.lessonService.GetLesson(r.Context(), lessonID, app.getIdentityContext(r).viewer()); err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	versions, err := app.lessonService.ListVersions(r.Context(), lessonID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"versions": versions}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) revertLessonHandler(w http.ResponseWriter, r *http.Request) {
	lessonID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	version, err := app.readIDParam(r, "version")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	lesson, err := app.lessonService.RevertLesson(r.Context(), lessonID, version, app.getIdentityContext(r).UserID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"lesson": lesson}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) listCourseLessonsHandler(w http.ResponseWriter, r *http.Request) {
	courseID, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundErrorResponse(w, r)
		return
	}

	cursor, limit, err := app.readCursorParams(r)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	page, err := app.lessonService.ListCourseLessons(r.Context(), courseID, cursor, limit, app.getIdentityContext(r).viewer())
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"lessons": page.Items,
		"pagination": envelope{
			"next_cursor": page.NextCursor,
			"limit":       page.Limit,
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
