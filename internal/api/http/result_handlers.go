package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/submission"
)

func SubmitTestHandler(engine *submission.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		var req struct {
			TestID       string                   `json:"test_id"`
			Answers      []submission.AnswerInput `json:"answers"`
			TimeTakenMin int                      `json:"time_taken_min"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		res, err := engine.Submit(r.Context(), actor.UserID, req.TestID, req.Answers, req.TimeTakenMin)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "test submitted successfully", res)
	}
}

func GetResultHandler(engine *submission.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		id := chi.URLParam(r, "resultID")
		res, err := engine.GetResult(r.Context(), id, actor.UserID, actor.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "result retrieved successfully", res)
	}
}

func MyResultsHandler(engine *submission.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		out, err := engine.ListMine(r.Context(), actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "results retrieved successfully", out)
	}
}

func TestResultsHandler(engine *submission.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := auth.IdentityFromContext(r.Context())
		testID := chi.URLParam(r, "testID")
		out, err := engine.ListForTest(r.Context(), testID, actor.UserID, actor.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "test results retrieved successfully", out)
	}
}
