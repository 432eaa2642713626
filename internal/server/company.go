package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
)

// fiscalLine joins the legal identifiers printed on documents,
// skipping whichever the company left blank.
func fiscalLine(company *companydomain.Company) string {
	parts := make([]string, 0, 4)
	if company.ICE != "" {
		parts = append(parts, "ICE: "+company.ICE)
	}
	if company.RC != "" {
		parts = append(parts, "RC: "+company.RC)
	}
	if company.Patente != "" {
		parts = append(parts, "Patente: "+company.Patente)
	}
	if company.IFNumber != "" {
		parts = append(parts, "IF: "+company.IFNumber)
	}
	return strings.Join(parts, " - ")
}

type CreateCompanyRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	ICE      string `json:"ice"`
	RC       string `json:"rc"`
	Patente  string `json:"patente"`
	IFNumber string `json:"if_number"`
	BCFooter string `json:"bc_footer"`
}

type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	City     *string `json:"city"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	ICE      *string `json:"ice"`
	RC       *string `json:"rc"`
	Patente  *string `json:"patente"`
	IFNumber *string `json:"if_number"`
	BCFooter *string `json:"bc_footer"`
	IsActive *bool   `json:"is_active"`
}

type NumberingRequest struct {
	Prefix         string `json:"prefix"`
	Separator      string `json:"separator"`
	YearFormat     string `json:"year_format"`
	SequenceLength int    `json:"sequence_length"`
	StartNumber    int64  `json:"start_number"`
}

func (s *Server) ListCompanies(c *gin.Context) {
	companies, err := s.companysvc.ListCompanies(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

func (s *Server) CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.companysvc.CreateCompany(c.Request.Context(), companydomain.CreateCompanyRequest{
		Name:     req.Name,
		Slug:     req.Slug,
		Address:  req.Address,
		City:     req.City,
		Phone:    req.Phone,
		Email:    req.Email,
		ICE:      req.ICE,
		RC:       req.RC,
		Patente:  req.Patente,
		IFNumber: req.IFNumber,
		BCFooter: req.BCFooter,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetCompanyBySlug(c *gin.Context) {
	company, err := s.companysvc.GetCompanyBySlug(c.Request.Context(), c.Query("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) GetCompanyByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	company, err := s.companysvc.GetCompany(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) UpdateCompany(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companysvc.UpdateCompany(c.Request.Context(), companydomain.UpdateCompanyRequest{
		ID:       id,
		Name:     req.Name,
		Address:  req.Address,
		City:     req.City,
		Phone:    req.Phone,
		Email:    req.Email,
		ICE:      req.ICE,
		RC:       req.RC,
		Patente:  req.Patente,
		IFNumber: req.IFNumber,
		BCFooter: req.BCFooter,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) UpdateCompanyNumbering(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req NumberingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	company, err := s.companysvc.UpdateNumbering(c.Request.Context(), id, companydomain.Numbering{
		Prefix:         req.Prefix,
		Separator:      req.Separator,
		YearFormat:     req.YearFormat,
		SequenceLength: req.SequenceLength,
		StartNumber:    req.StartNumber,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) UploadCompanyLogo(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer f.Close()

	path, err := s.uploads.Save(fileHeader.Filename, f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	company, err := s.companysvc.UpdateCompany(c.Request.Context(), companydomain.UpdateCompanyRequest{
		ID:       id,
		LogoPath: &path,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}
