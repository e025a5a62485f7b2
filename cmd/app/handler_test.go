package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lessonFixture struct {
	ts           *testServer
	db           *sql.DB
	courseID     int
	instructorID int
	studentID    int
	instructor   string
	student      string
}

func setupLessonFixture(t *testing.T) *lessonFixture {
	t.Helper()

	app, db := newTestApplicationWithDB(t)

	f := &lessonFixture{ts: newTestServer(t, app.routes()), db: db}

	require.NoError(t, db.QueryRow(`INSERT INTO users (username, email, role) VALUES ('teacher', 'teacher@example.com', 'instructor') RETURNING id`).Scan(&f.instructorID))
	require.NoError(t, db.QueryRow(`INSERT INTO users (username, email) VALUES ('student', 'student@example.com') RETURNING id`).Scan(&f.studentID))
	require.NoError(t, db.QueryRow(`INSERT INTO courses (title, instructor_id) VALUES ('Go', $1) RETURNING id`, f.instructorID).Scan(&f.courseID))

	f.instructor = newToken(t, f.instructorID, roleInstructor, testSecret, time.Hour)
	f.student = newToken(t, f.studentID, roleStudent, testSecret, time.Hour)

	return f
}

func (f *lessonFixture) createLesson(t *testing.T, payload map[string]any) int {
	t.Helper()

	status, headers, body := f.ts.do(t, http.MethodPost, fmt.Sprintf("/v1/courses/%d/lessons", f.courseID), f.instructor, payload)
	require.Equal(t, http.StatusCreated, status, body)

	lesson := body["lesson"].(map[string]any)
	id := int(lesson["id"].(float64))
	assert.Equal(t, fmt.Sprintf("/v1/lessons/%d", id), headers.Get("Location"))

	return id
}

func TestHealthCheckHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.do(t, http.MethodGet, "/v1/healthcheck", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, map[string]any{"environment": "development", "version": "test"}, body["system_info"])
}

func TestCreateLessonHandler(t *testing.T) {
	f := setupLessonFixture(t)

	testCases := []struct {
		name       string
		path       string
		token      string
		payload    any
		wantStatus int
		wantBody   envelope
	}{
		{
			name:       "instructor",
			path:       fmt.Sprintf("/v1/courses/%d/lessons", f.courseID),
			token:      f.instructor,
			payload:    map[string]any{"title": "Variables", "content": "v1"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "anonymous",
			path:       fmt.Sprintf("/v1/courses/%d/lessons", f.courseID),
			payload:    map[string]any{"title": "Variables"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "student",
			path:       fmt.Sprintf("/v1/courses/%d/lessons", f.courseID),
			token:      f.student,
			payload:    map[string]any{"title": "Variables"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "validation",
			path:       fmt.Sprintf("/v1/courses/%d/lessons", f.courseID),
			token:      f.instructor,
			payload:    map[string]any{"title": "", "status": "hidden"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: envelope{"error": map[string]any{
				"title":  "must be provided",
				"status": "must be one of draft, review, published or archived",
			}},
		},
		{
			name:       "unknown course",
			path:       "/v1/courses/999/lessons",
			token:      f.instructor,
			payload:    map[string]any{"title": "Variables"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   envelope{"error": map[string]any{"course_id": "does not exist"}},
		},
		{
			name:       "unknown field",
			path:       fmt.Sprintf("/v1/courses/%d/lessons", f.courseID),
			token:      f.instructor,
			payload:    map[string]any{"title": "Variables", "version": 9},
			wantStatus: http.StatusBadRequest,
			wantBody:   envelope{"error": `request body contains unknown field "version"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, body := f.ts.do(t, http.MethodPost, tc.path, tc.token, tc.payload)

			assert.Equal(t, tc.wantStatus, status)
			if tc.wantBody != nil {
				assert.Equal(t, tc.wantBody, body)
			}
		})
	}
}

func TestLessonLifecycle(t *testing.T) {
	f := setupLessonFixture(t)

	id := f.createLesson(t, map[string]any{"title": "Interfaces", "content": "v1", "status": "published"})
	lessonPath := fmt.Sprintf("/v1/lessons/%d", id)

	status, _, body := f.ts.do(t, http.MethodPatch, lessonPath, f.instructor, map[string]any{"content": "v2", "change_description": "fix"})
	require.Equal(t, http.StatusOK, status, body)

	status, _, body = f.ts.do(t, http.MethodPatch, lessonPath, f.instructor, map[string]any{"title": "new title"})
	require.Equal(t, http.StatusOK, status, body)

	status, _, body = f.ts.do(t, http.MethodPost, lessonPath+"/versions/1/revert", f.instructor, nil)
	require.Equal(t, http.StatusOK, status, body)

	lesson := body["lesson"].(map[string]any)
	assert.Equal(t, float64(4), lesson["version"])
	assert.Equal(t, "v1", lesson["content"])

	status, _, body = f.ts.do(t, http.MethodGet, lessonPath+"/versions", f.student, nil)
	require.Equal(t, http.StatusOK, status)

	versions := body["versions"].([]any)
	require.Len(t, versions, 3)

	var numbers []float64
	for _, v := range versions {
		numbers = append(numbers, v.(map[string]any)["version"].(float64))
	}
	assert.Equal(t, []float64{4, 2, 1}, numbers)
	assert.Equal(t, "Reverted to version 1", versions[0].(map[string]any)["change_description"])

	status, _, body = f.ts.do(t, http.MethodGet, lessonPath, f.student, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "new title", body["lesson"].(map[string]any)["title"])
	assert.Equal(t, false, body["lesson"].(map[string]any)["enrolled"])

	status, _, body = f.ts.do(t, http.MethodPost, lessonPath+"/versions/42/revert", f.instructor, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "version not found", body["error"])

	status, _, _ = f.ts.do(t, http.MethodPatch, lessonPath, f.student, map[string]any{"title": "hijack"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = f.ts.do(t, http.MethodDelete, lessonPath, f.instructor, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = f.ts.do(t, http.MethodGet, lessonPath, f.student, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetLessonHandler_Drafts(t *testing.T) {
	f := setupLessonFixture(t)

	id := f.createLesson(t, map[string]any{"title": "Draft", "content": "wip"})
	lessonPath := fmt.Sprintf("/v1/lessons/%d", id)

	status, _, _ := f.ts.do(t, http.MethodGet, lessonPath, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = f.ts.do(t, http.MethodGet, lessonPath+"/versions", f.student, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = f.ts.do(t, http.MethodGet, lessonPath, f.instructor, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = f.ts.do(t, http.MethodGet, "/v1/lessons/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListCourseLessonsHandler(t *testing.T) {
	f := setupLessonFixture(t)

	for i := 0; i < 5; i++ {
		f.createLesson(t, map[string]any{"title": fmt.Sprintf("Lesson %d", i), "status": "published"})
	}
	f.createLesson(t, map[string]any{"title": "Hidden draft"})

	listPath := fmt.Sprintf("/v1/courses/%d/lessons", f.courseID)

	var titles []string
	cursor := ""
	for fetches := 0; fetches < 10; fetches++ {
		q := url.Values{"limit": {"2"}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		status, _, body := f.ts.do(t, http.MethodGet, listPath+"?"+q.Encode(), "", nil)
		require.Equal(t, http.StatusOK, status, body)

		for _, l := range body["lessons"].([]any) {
			titles = append(titles, l.(map[string]any)["title"].(string))
		}

		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(2), pagination["limit"])
		next, ok := pagination["next_cursor"].(string)
		if !ok {
			break
		}
		cursor = next
	}

	assert.Equal(t, []string{"Lesson 0", "Lesson 1", "Lesson 2", "Lesson 3", "Lesson 4"}, titles)

	status, _, body := f.ts.do(t, http.MethodGet, listPath+"?cursor=%25%25%25", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid pagination cursor", body["error"])

	status, _, _ = f.ts.do(t, http.MethodGet, listPath+"?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, body = f.ts.do(t, http.MethodGet, listPath, f.instructor, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["lessons"], 6)
	assert.Nil(t, body["pagination"].(map[string]any)["next_cursor"])
}
