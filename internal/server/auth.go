package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.Token, result.Session.ExpiresAt)
	c.JSON(http.StatusOK, result.User)
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		_ = s.authsvc.Logout(c.Request.Context(), token)
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	// All sessions are revoked on password change, this one included.
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type CreateUserRequest struct {
	CompanyID         string `json:"company_id"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Phone             string `json:"phone"`
	Role              string `json:"role"`
	PreferredLanguage string `json:"preferred_language"`
}

type UpdateUserRequest struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	Phone             *string `json:"phone"`
	Role              *string `json:"role"`
	PreferredLanguage *string `json:"preferred_language"`
	IsActive          *bool   `json:"is_active"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create := authdomain.CreateUserRequest{
		Email:             req.Email,
		Password:          req.Password,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Role:              req.Role,
		PreferredLanguage: req.PreferredLanguage,
	}
	if strings.TrimSpace(req.CompanyID) != "" {
		companyID, err := snowflake.ParseString(req.CompanyID)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		create.CompanyID = &companyID
	}

	user, err := s.authsvc.CreateUser(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.authsvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) GetUserByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) UpdateUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authsvc.UpdateUser(c.Request.Context(), authdomain.UpdateUserRequest{
		ID:                id,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Role:              req.Role,
		PreferredLanguage: req.PreferredLanguage,
		IsActive:          req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
