package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/lessonhub/internal/lessonservice"
)

type contextKey string

const identityContextKey = contextKey("identity")

const (
	roleStudent    = "student"
	roleInstructor = "instructor"
	roleAdmin      = "admin"
)

type identity struct {
	UserID int
	Role   string
}

var anonymousIdentity = &identity{}

func (i *identity) IsAnonymous() bool {
	return i == anonymousIdentity || i.UserID == 0
}

func (i *identity) IsEditor() bool {
	return i.Role == roleInstructor || i.Role == roleAdmin
}

func (i *identity) viewer() lessonservice.Viewer {
	return lessonservice.Viewer{ID: i.UserID, Editor: i.IsEditor()}
}

func (app *application) createIdentityContext(r *http.Request, id *identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, id)
	return r.WithContext(ctx)
}

func (app *application) getIdentityContext(r *http.Request) *identity {
	id, ok := r.Context().Value(identityContextKey).(*identity)
	if !ok {
		return anonymousIdentity
	}
	return id
}
