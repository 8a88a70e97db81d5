package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

type meResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toAuthResponse(r *models.AuthResult) authResponse {
	return authResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Username:     r.UserName,
		Role:         string(r.Role),
	}
}

// decode reads a JSON body into v, writing a 400 envelope on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeFailure(w, http.StatusBadRequest, msgMalformedBody, nil)
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Info(r.Context(), "Registration request", "username", req.Username)

	if err := validation.Register(req.Username, req.Email, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, "User registered successfully", toAuthResponse(result))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Info(r.Context(), "Login request", "username", req.Username)

	if err := validation.Login(req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Login successful", toAuthResponse(result))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := validation.Refresh(req.RefreshToken); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Token refreshed successfully", toAuthResponse(result))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		s.writeFailure(w, http.StatusInternalServerError, msgInternal, nil)
		return
	}
	s.writeSuccess(w, http.StatusOK, "Operation successful", meResponse{Username: p.UserName, Role: string(p.Role)})
}
