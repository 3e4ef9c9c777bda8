package http

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/testifyhub/testifyhub/internal/apperr"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/rbac"
)

type authResponse struct {
	User  auth.User `json:"user"`
	Token string    `json:"token"`
}

func RegisterHandler(users *auth.UserStore, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, apperr.New(apperr.KindInvalidRequest, "name, email, and password are required"))
			return
		}
		if len(req.Password) < 8 {
			writeError(w, apperr.New(apperr.KindInvalidRequest, "password must be at least 8 characters long"))
			return
		}
		if req.Role == "" {
			req.Role = rbac.RoleStudent
		}
		if !rbac.ValidRole(req.Role) {
			writeError(w, apperr.Newf(apperr.KindInvalidRequest, "unknown role %q", req.Role))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, err)
			return
		}
		u, err := users.CreateUser(r.Context(), auth.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         req.Role,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		token, err := svc.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "user registered successfully", authResponse{User: u, Token: token})
	}
}

func LoginHandler(users *auth.UserStore, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeError(w, apperr.New(apperr.KindInvalidRequest, "email and password are required"))
			return
		}
		u, err := users.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			// Same response for unknown email and wrong password.
			writeJSON(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			writeJSON(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		token, err := svc.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "login successful", authResponse{User: u, Token: token})
	}
}

func CurrentUserHandler(users *auth.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		u, err := users.GetUserByID(r.Context(), id.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "user data retrieved successfully", u)
	}
}
