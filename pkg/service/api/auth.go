package api

import (
	"net/http"

	"github.com/m-mizutani/washp/pkg/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (c credentialsRequest) credentials() model.Credentials {
	return model.Credentials{Email: c.Email, Password: c.Password}
}

// POST /api/v1/auth/signup
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := s.account.SignUp(r.Context(), req.credentials(), req.Name)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, session)
	return nil
}

// POST /api/v1/auth/signin
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) error {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := s.account.SignIn(r.Context(), req.credentials())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, session)
	return nil
}

// POST /api/v1/auth/signout
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) error {
	if err := s.account.SignOut(r.Context(), userIDFrom(r.Context())); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /api/v1/auth/password-reset
// Body: {"email": "..."}
func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if err := s.account.SendPasswordReset(r.Context(), req.Email); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// POST /api/v1/auth/verify-email
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) error {
	session := &model.Session{
		UserID:  userIDFrom(r.Context()),
		IDToken: tokenFrom(r.Context()),
	}
	if err := s.account.SendVerificationEmail(r.Context(), session); err != nil {
		return err
	}
	w.WriteHeader(http.StatusAccepted)
	return nil
}

// GET /api/v1/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) error {
	user, err := s.account.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, user)
	return nil
}

// DELETE /api/v1/account
// Body: {"password": "..."}
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session := &model.Session{UserID: userIDFrom(r.Context()), IDToken: tokenFrom(r.Context())}
	if err := s.account.Delete(r.Context(), session, req.Password); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
