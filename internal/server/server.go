package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/chantierflow/chantierflow/internal/auth"
	authdomain "github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/auth/session"
	"github.com/chantierflow/chantierflow/internal/authorization"
	"github.com/chantierflow/chantierflow/internal/company"
	companydomain "github.com/chantierflow/chantierflow/internal/company/domain"
	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/chantierflow/chantierflow/internal/i18n"
	"github.com/chantierflow/chantierflow/internal/lexicon"
	lexicondomain "github.com/chantierflow/chantierflow/internal/lexicon/domain"
	obslogger "github.com/chantierflow/chantierflow/internal/observability/logger"
	obsmetrics "github.com/chantierflow/chantierflow/internal/observability/metrics"
	"github.com/chantierflow/chantierflow/internal/order"
	orderdomain "github.com/chantierflow/chantierflow/internal/order/domain"
	"github.com/chantierflow/chantierflow/internal/product"
	productdomain "github.com/chantierflow/chantierflow/internal/product/domain"
	"github.com/chantierflow/chantierflow/internal/project"
	projectdomain "github.com/chantierflow/chantierflow/internal/project/domain"
	"github.com/chantierflow/chantierflow/internal/providers"
	"github.com/chantierflow/chantierflow/internal/providers/pdf"
	"github.com/chantierflow/chantierflow/internal/providers/upload"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	company.Module,
	project.Module,
	product.Module,
	order.Module,
	lexicon.Module,
	providers.Module,
	i18n.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	genID        *snowflake.Node
	sessions     *session.Manager
	authsvc      authdomain.Service
	authzSvc     authorization.Service
	companysvc   companydomain.Service
	projectsvc   projectdomain.Service
	productsvc   productdomain.Service
	ordersvc     orderdomain.Service
	lexiconsvc   lexicondomain.Service
	pdfProvider  pdf.Provider
	uploads      *upload.Store
	translator   *i18n.Translator
	loginLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	GenID       *snowflake.Node
	Sessions    *session.Manager
	Authsvc     authdomain.Service
	AuthzSvc    authorization.Service
	Companysvc  companydomain.Service
	Projectsvc  projectdomain.Service
	Productsvc  productdomain.Service
	Ordersvc    orderdomain.Service
	Lexiconsvc  lexicondomain.Service
	PDFProvider pdf.Provider
	Uploads     *upload.Store
	Translator  *i18n.Translator
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		genID:        p.GenID,
		sessions:     p.Sessions,
		authsvc:      p.Authsvc,
		authzSvc:     p.AuthzSvc,
		companysvc:   p.Companysvc,
		projectsvc:   p.Projectsvc,
		productsvc:   p.Productsvc,
		ordersvc:     p.Ordersvc,
		lexiconsvc:   p.Lexiconsvc,
		pdfProvider:  p.PDFProvider,
		uploads:      p.Uploads,
		translator:   p.Translator,
		loginLimiter: newRateLimiter(10, 10*time.Minute),
	}

	svc.registerAuthRoutes()
	svc.registerLocaleRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

// Locale routes sit outside the session gate so a visitor can switch
// language before logging in.
func (s *Server) registerLocaleRoutes() {
	s.engine.GET("/i18n", s.GetLocaleInfo)
	s.engine.PUT("/i18n/:lang", s.SetLocale)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Companies --------
	api.GET("/companies", s.ListCompanies)
	api.POST("/companies", s.CreateCompany)
	api.GET("/companies/:id", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyView), s.GetCompanyByID)
	api.GET("/companies/lookup", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyView), s.GetCompanyBySlug)
	api.PATCH("/companies/:id", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UpdateCompany)
	api.PUT("/companies/:id/numbering", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UpdateCompanyNumbering)
	api.POST("/companies/:id/logo", s.authorize(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UploadCompanyLogo)

	// -------- Users --------
	api.GET("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.ListUsers)
	api.POST("/users", s.authorize(authorization.ObjectUser, authorization.ActionUserCreate), s.CreateUser)
	api.GET("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionUserView), s.GetUserByID)
	api.PATCH("/users/:id", s.authorize(authorization.ObjectUser, authorization.ActionUserUpdate), s.UpdateUser)

	// -------- Projects --------
	api.GET("/projects", s.authorize(authorization.ObjectProject, authorization.ActionProjectView), s.ListProjects)
	api.POST("/projects", s.authorize(authorization.ObjectProject, authorization.ActionProjectCreate), s.CreateProject)
	api.GET("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionProjectView), s.GetProjectByID)
	api.PATCH("/projects/:id", s.authorize(authorization.ObjectProject, authorization.ActionProjectUpdate), s.UpdateProject)
	api.POST("/projects/:id/archive", s.authorize(authorization.ObjectProject, authorization.ActionProjectArchive), s.ArchiveProject)

	// -------- Products --------
	api.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	api.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
	api.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
	api.POST("/products/:id/archive", s.authorize(authorization.ObjectProduct, authorization.ActionProductArchive), s.ArchiveProduct)

	// -------- Orders --------
	api.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	api.POST("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CreateOrder)
	api.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderByID)
	api.GET("/orders/:id/history", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderHistory)

	api.POST("/orders/:id/lines", s.authorize(authorization.ObjectOrder, authorization.ActionOrderEdit), s.AddOrderLine)
	api.PATCH("/orders/:id/lines/:line", s.authorize(authorization.ObjectOrder, authorization.ActionOrderEdit), s.UpdateOrderLine)
	api.DELETE("/orders/:id/lines/:line", s.authorize(authorization.ObjectOrder, authorization.ActionOrderEdit), s.DeleteOrderLine)

	api.POST("/orders/:id/submit", s.authorize(authorization.ObjectOrder, authorization.ActionOrderSubmit), s.SubmitOrder)
	api.POST("/orders/:id/validate", s.authorize(authorization.ObjectOrder, authorization.ActionOrderValidate), s.ValidateOrder)
	api.POST("/orders/:id/reject", s.authorize(authorization.ObjectOrder, authorization.ActionOrderReject), s.RejectOrder)
	api.POST("/orders/:id/pdf", s.authorize(authorization.ObjectOrder, authorization.ActionOrderPDF), s.GenerateOrderPDF)
	api.GET("/orders/:id/pdf", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.DownloadOrderPDF)
	api.POST("/orders/:id/share", s.authorize(authorization.ObjectOrder, authorization.ActionOrderShare), s.ShareOrder)

	// -------- Lexicon --------
	api.GET("/lexicon/search", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconView), s.SearchLexicon)
	api.GET("/lexicon/translate", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconView), s.TranslateTerm)
	api.GET("/lexicon/entries", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconView), s.ListLexiconEntries)
	api.POST("/lexicon/entries", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconManage), s.CreateLexiconEntry)
	api.PATCH("/lexicon/entries/:id", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconManage), s.UpdateLexiconEntry)
	api.DELETE("/lexicon/entries/:id", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconManage), s.DeleteLexiconEntry)

	api.POST("/lexicon/suggestions", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconSuggest), s.SuggestLexiconTerm)
	api.GET("/lexicon/suggestions", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconReview), s.ListPendingSuggestions)
	api.POST("/lexicon/suggestions/:id/approve", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconReview), s.ApproveSuggestion)
	api.POST("/lexicon/suggestions/:id/reject", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconReview), s.RejectSuggestion)
	api.POST("/lexicon/import", s.authorize(authorization.ObjectLexicon, authorization.ActionLexiconReview), s.ImportLexiconCSV)
}
