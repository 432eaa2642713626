package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	orderdomain "github.com/chantierflow/chantierflow/internal/order/domain"
	"github.com/chantierflow/chantierflow/internal/providers/pdf"
	"github.com/chantierflow/chantierflow/pkg/db/pagination"
)

type CreateOrderRequest struct {
	ProjectID       string     `json:"project_id"`
	SupplierName    string     `json:"supplier_name"`
	SupplierPhone   string     `json:"supplier_phone"`
	SupplierAddress string     `json:"supplier_address"`
	RequestedDate   *time.Time `json:"requested_date"`
	Notes           string     `json:"notes"`
}

type OrderLineRequest struct {
	ProductID   string  `json:"product_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Note        string  `json:"note"`
}

type UpdateOrderLineRequest struct {
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	UnitPrice   *float64 `json:"unit_price"`
	Note        *string  `json:"note"`
}

type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

type ShareOrderRequest struct {
	Channel string `json:"channel"`
}

// orderView decorates the stored order with its derived total and a
// status label in the caller's language.
type orderView struct {
	*orderdomain.Order
	Total       float64 `json:"total"`
	StatusLabel string  `json:"status_label,omitempty"`
}

func (s *Server) orderView(c *gin.Context, o *orderdomain.Order) orderView {
	return orderView{
		Order:       o,
		Total:       o.Total(),
		StatusLabel: s.translator.Translate(s.requestLocale(c), "order.status."+string(o.Status)),
	}
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(req.ProjectID))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.ordersvc.CreateOrder(c.Request.Context(), orderdomain.CreateOrderRequest{
		ProjectID:       projectID,
		SupplierName:    req.SupplierName,
		SupplierPhone:   req.SupplierPhone,
		SupplierAddress: req.SupplierAddress,
		RequestedDate:   req.RequestedDate,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.orderView(c, created))
}

func (s *Server) ListOrders(c *gin.Context) {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	createdBy, err := queryID(c, "created_by")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orders, pageInfo, err := s.ordersvc.ListOrders(c.Request.Context(), orderdomain.ListOrdersFilter{
		ProjectID: projectID,
		Status:    orderdomain.Status(strings.TrimSpace(c.Query("status"))),
		CreatedBy: createdBy,
		Page:      page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, s.orderView(c, o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views, "page_info": pageInfo})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	found, err := s.ordersvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orderView(c, found))
}

func (s *Server) GetOrderHistory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	history, err := s.ordersvc.History(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) AddOrderLine(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req OrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	input := orderdomain.LineInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Note:        req.Note,
	}
	if strings.TrimSpace(req.ProductID) != "" {
		productID, err := snowflake.ParseString(req.ProductID)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		input.ProductID = &productID
	}

	line, err := s.ordersvc.AddLine(c.Request.Context(), id, input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (s *Server) UpdateOrderLine(c *gin.Context) {
	id, lineNumber, err := orderLineParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateOrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	line, err := s.ordersvc.UpdateLine(c.Request.Context(), id, lineNumber, orderdomain.UpdateLineRequest{
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		Note:        req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (s *Server) DeleteOrderLine(c *gin.Context) {
	id, lineNumber, err := orderLineParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.ordersvc.DeleteLine(c.Request.Context(), id, lineNumber); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func orderLineParams(c *gin.Context) (snowflake.ID, int, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	lineNumber, err := strconv.Atoi(strings.TrimSpace(c.Param("line")))
	if err != nil || lineNumber < 1 {
		return 0, 0, invalidRequestError()
	}
	return id, lineNumber, nil
}

func (s *Server) SubmitOrder(c *gin.Context) {
	s.transitionOrder(c, func(id snowflake.ID) (*orderdomain.Order, error) {
		return s.ordersvc.Submit(c.Request.Context(), id)
	})
}

func (s *Server) ValidateOrder(c *gin.Context) {
	s.transitionOrder(c, func(id snowflake.ID) (*orderdomain.Order, error) {
		return s.ordersvc.Validate(c.Request.Context(), id)
	})
}

func (s *Server) RejectOrder(c *gin.Context) {
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.transitionOrder(c, func(id snowflake.ID) (*orderdomain.Order, error) {
		return s.ordersvc.Reject(c.Request.Context(), id, req.Reason)
	})
}

func (s *Server) ShareOrder(c *gin.Context) {
	var req ShareOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.transitionOrder(c, func(id snowflake.ID) (*orderdomain.Order, error) {
		return s.ordersvc.Share(c.Request.Context(), id, req.Channel)
	})
}

func (s *Server) transitionOrder(c *gin.Context, fn func(id snowflake.ID) (*orderdomain.Order, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := fn(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orderView(c, updated))
}

// GenerateOrderPDF renders the document, stores the artifact and
// advances the order to PDF_GENERE in one request.
func (s *Server) GenerateOrderPDF(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	found, err := s.ordersvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if found.Status != orderdomain.StatusValidated {
		AbortWithError(c, orderdomain.ErrPDFRequiresValidated(found.Status))
		return
	}

	company, err := s.companysvc.GetCompany(c.Request.Context(), found.CompanyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	project, err := s.projectsvc.GetProject(c.Request.Context(), found.ProjectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.OrderDocumentData{
		CompanyName:    company.Name,
		CompanyAddress: strings.TrimSpace(company.Address + " " + company.City),
		CompanyPhone:   company.Phone,
		CompanyLogo:    company.LogoPath,
		FiscalIDs:      fiscalLine(company),
		Footer:         company.BCFooter,
		Reference:      found.Reference,
		IssueDate:      found.CreatedAt.Format("02/01/2006"),
		ProjectName:    project.Name,
		SupplierName:   found.SupplierName,
		Notes:          found.Notes,
		Total:          formatAmount(found.Total()),
	}
	for _, line := range found.Lines {
		data.Lines = append(data.Lines, pdf.OrderDocumentLine{
			Number:      line.LineNumber,
			Description: line.Description,
			Quantity:    strconv.FormatFloat(line.Quantity, 'f', -1, 64),
			Unit:        line.Unit,
			UnitPrice:   formatAmount(line.UnitPrice),
			Amount:      formatAmount(line.Total()),
		})
	}

	artifactPath, err := s.pdfProvider.GenerateOrderDocument(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updated, err := s.ordersvc.MarkPDFGenerated(c.Request.Context(), id, artifactPath)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.orderView(c, updated))
}

func (s *Server) DownloadOrderPDF(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	found, err := s.ordersvc.GetOrder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if found.PDFPath == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", found.Reference+".pdf"))
	c.File(found.PDFPath)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
