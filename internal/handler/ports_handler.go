// internal/handler/ports_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hp82240-service/internal/protocol"
	"hp82240-service/internal/utils"
)

// PortScanner lists the serial ports available for wanted
type PortScanner func(wanted string) ([]protocol.PortInfo, error)

// PortsHandler handles serial port discovery requests
type PortsHandler struct {
	scan   PortScanner
	wanted string
	logger *utils.ServiceLogger
}

// NewPortsHandler creates a new ports handler. wanted is the configured
// port name, used when the request does not name one.
func NewPortsHandler(scan PortScanner, wanted string, logger *zap.Logger) *PortsHandler {
	if scan == nil {
		scan = protocol.ListPorts
	}
	return &PortsHandler{
		scan:   scan,
		wanted: wanted,
		logger: utils.NewServiceLogger(logger, "ports-handler"),
	}
}

// RegisterRoutes registers port routes
func (h *PortsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ports", h.ScanPorts)
}

// ScanPorts lists the serial ports
// @Summary Scan serial ports
// @Description List the serial ports and mark the one the serial input would open
// @Tags Discovery
// @Produce json
// @Param name query string false "Port name, or auto" default(auto)
// @Success 200 {object} utils.APIResponse{data=object{ports_found=int,ports=[]protocol.PortInfo}} "Port scan completed"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /ports [get]
func (h *PortsHandler) ScanPorts(c *gin.Context) {
	wanted := c.DefaultQuery("name", h.wanted)

	ports, err := h.scan(wanted)
	if err != nil {
		h.logger.Error("Failed to scan serial ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan serial ports", err)
		return
	}
	if ports == nil {
		ports = []protocol.PortInfo{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Port scan completed", gin.H{
		"ports_found": len(ports),
		"ports":       ports,
	})
}
