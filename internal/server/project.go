package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
)

type CreateProjectRequest struct {
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	Description  string     `json:"description"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	ContactName  string     `json:"contact_name"`
	ContactPhone string     `json:"contact_phone"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Budget       float64    `json:"budget"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

type UpdateProjectRequest struct {
	Name         *string    `json:"name"`
	Code         *string    `json:"code"`
	Description  *string    `json:"description"`
	Address      *string    `json:"address"`
	City         *string    `json:"city"`
	ContactName  *string    `json:"contact_name"`
	ContactPhone *string    `json:"contact_phone"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	Budget       *float64   `json:"budget"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.projectsvc.ListProjects(c.Request.Context(), projectdomain.ListProjectsFilter{
		ActiveOnly: queryBool(c, "active"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectsvc.CreateProject(c.Request.Context(), projectdomain.CreateProjectRequest{
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Budget:       req.Budget,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) GetProjectByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	project, err := s.projectsvc.GetProject(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) UpdateProject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectsvc.UpdateProject(c.Request.Context(), projectdomain.UpdateProjectRequest{
		ID:           id,
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Budget:       req.Budget,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) ArchiveProject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.projectsvc.ArchiveProject(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}
