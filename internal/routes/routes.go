// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hp82240-service/internal/config"
	"hp82240-service/internal/database"
	"hp82240-service/internal/handler"
	"hp82240-service/internal/middleware"
	"hp82240-service/internal/protocol"
	"hp82240-service/internal/repository"
	"hp82240-service/internal/service"
	"hp82240-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.DB
	printer  *service.PrinterService
	eventBus *service.EventBus
	archive  repository.PaperRepository
	scan     handler.PortScanner
}

// NewRouter creates a new router instance. db and archive are nil when the
// paper archive is disabled.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	printer *service.PrinterService,
	eventBus *service.EventBus,
	archive repository.PaperRepository,
) *Router {
	return &Router{
		config:   config,
		logger:   logger,
		db:       db,
		printer:  printer,
		eventBus: eventBus,
		archive:  archive,
		scan:     protocol.ListPorts,
	}
}

// WithPortScanner replaces the serial port enumeration
func (r *Router) WithPortScanner(scan handler.PortScanner) *Router {
	r.scan = scan
	return r
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)
	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Debug("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.printer, r.config, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printer, r.config, r.logger)
	portsHandler := handler.NewPortsHandler(r.scan, r.config.Serial.Port, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.printer, r.eventBus, r.config.Security.AllowedOrigins, r.logger)

	healthHandler.RegisterRoutes(&router.RouterGroup)

	apiV1 := router.Group("/api/v1")
	printerHandler.RegisterRoutes(apiV1)
	portsHandler.RegisterRoutes(apiV1)
	if r.archive != nil {
		handler.NewArchiveHandler(r.archive, r.logger).RegisterRoutes(apiV1)
	}

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.logger.Info("All routes configured successfully",
		zap.Bool("archive", r.archive != nil),
	)
}
