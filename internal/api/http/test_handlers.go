package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/rbac"
	"github.com/testifyhub/testifyhub/internal/testbank"
)

type questionInput struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Type          string   `json:"type"`
	Marks         int      `json:"marks"`
}

func (in questionInput) toQuestion(testID string) testbank.Question {
	return testbank.Question{
		TestID:        testID,
		Prompt:        in.Prompt,
		Options:       in.Options,
		CorrectAnswer: in.CorrectAnswer,
		Type:          in.Type,
		Marks:         in.Marks,
	}
}

func CreateTestHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		var req struct {
			Title       string          `json:"title"`
			Subject     string          `json:"subject"`
			DurationMin int             `json:"duration_min"`
			IsActive    *bool           `json:"is_active"`
			Questions   []questionInput `json:"questions"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		t := testbank.Test{
			Title:       req.Title,
			Subject:     req.Subject,
			DurationMin: req.DurationMin,
			CreatedBy:   actor.UserID,
			IsActive:    true,
		}
		if req.IsActive != nil {
			t.IsActive = *req.IsActive
		}
		for _, q := range req.Questions {
			t.Questions = append(t.Questions, q.toQuestion(""))
		}
		created, err := tests.CreateTest(r.Context(), t)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "test created successfully", created)
	}
}

func ListTestsHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		out, err := tests.ListTests(r.Context(), testbank.ListOpts{
			ViewerID:   actor.UserID,
			ViewerRole: actor.Role,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "tests retrieved successfully", out)
	}
}

func GetTestHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "testID")
		t, err := tests.GetTestFull(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanViewTest(actor.Role, actor.UserID, t.CreatedBy, t.IsActive) {
			writeError(w, apperr.New(apperr.KindForbidden, "test is not available"))
			return
		}
		if actor.Role == rbac.RoleStudent {
			// Answer keys stay server-side while a student is taking the test.
			t, err = tests.GetTest(r.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, "test retrieved successfully", t)
	}
}

func UpdateTestHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "testID")
		t, err := tests.GetTestFull(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanMutateTest(actor.Role, actor.UserID, t.CreatedBy) {
			writeError(w, apperr.New(apperr.KindForbidden, "access denied"))
			return
		}
		var patch testbank.TestPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := tests.UpdateTest(r.Context(), id, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "test updated successfully", updated)
	}
}

func DeleteTestHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "testID")
		t, err := tests.GetTestFull(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanMutateTest(actor.Role, actor.UserID, t.CreatedBy) {
			writeError(w, apperr.New(apperr.KindForbidden, "access denied"))
			return
		}
		if err := tests.DeleteTest(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "test deleted successfully", nil)
	}
}
