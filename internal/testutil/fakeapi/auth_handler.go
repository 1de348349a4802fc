package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	roleAdmin = "Admin"
	roleUser  = "User"
	tokenTTL  = 24 * time.Hour
)

type user struct {
	Email        string
	PasswordHash string
	Role         string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token   string `json:"token"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// AddUser registers an account directly, bypassing the HTTP route.
func (s *Server) AddUser(email, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = &user{Email: email, PasswordHash: string(hash), Role: role}
	return nil
}

func (s *Server) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	role := req.Role
	if role != roleAdmin {
		role = roleUser
	}

	s.mu.Lock()
	_, exists := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if exists {
		return errUserExists
	}
	if err := s.AddUser(req.Email, req.Password, role); err != nil {
		return err
	}

	token, err := s.issueToken(req.Email, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.authBody(token, role, "User registered successfully"))
}

func (s *Server) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return errInvalidCredentials
	}

	token, err := s.issueToken(u.Email, u.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.authBody(token, u.Role, ""))
}

func (s *Server) authBody(token, role, message string) authResponse {
	resp := authResponse{Token: token, Role: role, Message: message}
	if s.omitRole {
		resp.Role = ""
	}
	return resp
}

func (s *Server) issueToken(email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  email,
		"role": role,
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
}
