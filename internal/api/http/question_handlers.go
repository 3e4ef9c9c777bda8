package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/rbac"
	"github.com/testifyhub/testifyhub/internal/testbank"
)

func AddQuestionHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		var req struct {
			TestID string `json:"test_id"`
			questionInput
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.TestID == "" {
			writeError(w, apperr.New(apperr.KindInvalidRequest, "test_id is required"))
			return
		}
		t, err := tests.GetTestFull(r.Context(), req.TestID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanMutateTest(actor.Role, actor.UserID, t.CreatedBy) {
			writeError(w, apperr.New(apperr.KindForbidden, "access denied"))
			return
		}
		q, err := tests.AddQuestion(r.Context(), req.toQuestion(req.TestID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "question added successfully", q)
	}
}

func ListQuestionsHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		testID := chi.URLParam(r, "testID")
		t, err := tests.GetTestFull(r.Context(), testID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanViewTest(actor.Role, actor.UserID, t.CreatedBy, t.IsActive) {
			writeError(w, apperr.New(apperr.KindForbidden, "test is not available"))
			return
		}
		qs := t.Questions
		if actor.Role == rbac.RoleStudent {
			for i := range qs {
				qs[i].CorrectAnswer = ""
			}
		}
		writeJSON(w, http.StatusOK, "questions retrieved successfully", qs)
	}
}

func UpdateQuestionHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "questionID")
		q, err := tests.GetQuestion(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		t, err := tests.GetTestFull(r.Context(), q.TestID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanMutateTest(actor.Role, actor.UserID, t.CreatedBy) {
			writeError(w, apperr.New(apperr.KindForbidden, "access denied"))
			return
		}
		var patch testbank.QuestionPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := tests.UpdateQuestion(r.Context(), id, patch)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "question updated successfully", updated)
	}
}

func DeleteQuestionHandler(tests testbank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "questionID")
		q, err := tests.GetQuestion(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		t, err := tests.GetTestFull(r.Context(), q.TestID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !rbac.CanMutateTest(actor.Role, actor.UserID, t.CreatedBy) {
			writeError(w, apperr.New(apperr.KindForbidden, "access denied"))
			return
		}
		if err := tests.DeleteQuestion(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "question deleted successfully", nil)
	}
}
