package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
)

type CreateProductRequest struct {
	Name         string            `json:"name"`
	Labels       map[string]string `json:"labels"`
	Unit         string            `json:"unit"`
	Category     string            `json:"category"`
	DefaultPrice float64           `json:"default_price"`
}

type UpdateProductRequest struct {
	Name         *string           `json:"name"`
	Labels       map[string]string `json:"labels"`
	Unit         *string           `json:"unit"`
	Category     *string           `json:"category"`
	DefaultPrice *float64          `json:"default_price"`
}

func (s *Server) ListProducts(c *gin.Context) {
	products, err := s.productsvc.ListProducts(c.Request.Context(), productdomain.ListProductsFilter{
		ActiveOnly: queryBool(c, "active"),
		Category:   c.Query("category"),
		Query:      c.Query("q"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.productsvc.CreateProduct(c.Request.Context(), productdomain.CreateProductRequest{
		Name:         req.Name,
		Labels:       req.Labels,
		Unit:         req.Unit,
		Category:     req.Category,
		DefaultPrice: req.DefaultPrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) GetProductByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	product, err := s.productsvc.GetProduct(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) UpdateProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.productsvc.UpdateProduct(c.Request.Context(), productdomain.UpdateProductRequest{
		ID:           id,
		Name:         req.Name,
		Labels:       req.Labels,
		Unit:         req.Unit,
		Category:     req.Category,
		DefaultPrice: req.DefaultPrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) ArchiveProduct(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.productsvc.ArchiveProduct(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}
