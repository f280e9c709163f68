// internal/handler/printer_handler.go
package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hp82240-service/internal/config"
	"hp82240-service/internal/paper"
	"hp82240-service/internal/service"
	"hp82240-service/internal/utils"
)

const maxImageScale = 8

// PrinterHandler handles print jobs and paper requests
type PrinterHandler struct {
	printer *service.PrinterService
	config  *config.Config
	logger  *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printer *service.PrinterService, cfg *config.Config, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printer: printer,
		config:  cfg,
		logger:  utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/print", h.Print)
	router.POST("/print/file", h.PrintFile)

	paperGroup := router.Group("/paper")
	{
		paperGroup.GET("", h.GetPaper)
		paperGroup.GET("/text", h.GetPaperText)
		paperGroup.GET("/image", h.GetPaperImage)
		paperGroup.DELETE("", h.ClearPaper)
	}

	printerGroup := router.Group("/printer")
	{
		printerGroup.GET("", h.GetStatus)
		printerGroup.POST("/reset", h.Reset)
		printerGroup.POST("/power-cycle", h.PowerCycle)
		printerGroup.POST("/self-test", h.SelfTest)
	}
}

// Print feeds raw printer bytes
// @Summary Print raw data
// @Description Feed the body, as sent over IR, to the printer
// @Tags Printer
// @Accept application/octet-stream
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Print data accepted"
// @Failure 400 {object} utils.APIResponse "Empty body"
// @Failure 413 {object} utils.APIResponse "Body too large"
// @Router /print [post]
func (h *PrinterHandler) Print(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}
	if len(data) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Print data is required", service.ErrEmptyJob)
		return
	}

	result := h.printer.Print(data)
	h.logger.Debug("Print data accepted",
		zap.Int("bytes", result.BytesAccepted),
		zap.Int("lines", result.LinesPrinted),
	)
	utils.SuccessResponse(c, http.StatusOK, "Print data accepted", result)
}

// PrintFile feeds a YAML print file
// @Summary Print a print file
// @Description Convert a YAML print file and feed it to the printer
// @Tags Printer
// @Accept application/yaml
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Print file accepted"
// @Failure 400 {object} utils.APIResponse "Empty print file"
// @Failure 422 {object} utils.APIResponse "Invalid print file"
// @Router /print/file [post]
func (h *PrinterHandler) PrintFile(c *gin.Context) {
	data, ok := h.readBody(c)
	if !ok {
		return
	}

	result, err := h.printer.PrintFile(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, service.ErrEmptyJob) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Print file has no data", err)
			return
		}
		h.logger.Warn("Invalid print file", zap.Error(err))
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "Invalid print file", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Print file accepted", result)
}

// GetPaper returns the printed lines
// @Summary Get paper
// @Description Get the lines on the paper roll, optionally only those after a line number
// @Tags Paper
// @Produce json
// @Param since query int false "Only lines numbered after this one"
// @Success 200 {object} utils.APIResponse{data=object{count=int,lines=[]paper.Line}} "Paper retrieved"
// @Router /paper [get]
func (h *PrinterHandler) GetPaper(c *gin.Context) {
	var lines []paper.Line
	if since := c.Query("since"); since != "" {
		n, err := strconv.Atoi(since)
		if err != nil || n < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid since parameter", err)
			return
		}
		lines = h.printer.PaperSince(n)
	} else {
		lines = h.printer.Paper()
	}
	if lines == nil {
		lines = []paper.Line{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Paper retrieved", gin.H{
		"count": len(lines),
		"lines": lines,
	})
}

// GetPaperText returns the printed text
func (h *PrinterHandler) GetPaperText(c *gin.Context) {
	c.String(http.StatusOK, h.printer.PaperText())
}

// GetPaperImage renders the paper as PNG
// @Summary Get paper image
// @Tags Paper
// @Produce png
// @Param scale query int false "Pixels per dot" default(1)
// @Param border query bool false "Draw a frame"
// @Router /paper/image [get]
func (h *PrinterHandler) GetPaperImage(c *gin.Context) {
	opts := paper.RenderOptions{Scale: h.config.Paper.Scale}
	if scale := c.Query("scale"); scale != "" {
		n, err := strconv.Atoi(scale)
		if err != nil || n < 1 || n > maxImageScale {
			utils.ErrorResponse(c, http.StatusBadRequest, "Scale must be between 1 and 8", err)
			return
		}
		opts.Scale = n
	}
	opts.Border = c.Query("border") == "true"

	var buf bytes.Buffer
	if err := h.printer.RenderPaper(&buf, opts); err != nil {
		h.logger.Error("Failed to render paper", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to render paper", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ClearPaper tears the paper off
func (h *PrinterHandler) ClearPaper(c *gin.Context) {
	h.printer.ClearPaper()
	utils.SuccessResponse(c, http.StatusOK, "Paper cleared", nil)
}

// GetStatus returns the printer status
// @Summary Get printer status
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.PrinterStatus} "Printer status retrieved"
// @Router /printer [get]
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", h.printer.Status())
}

// Reset sends the reset escape sequence
func (h *PrinterHandler) Reset(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer reset", h.printer.Reset())
}

// PowerCycle discards the decoder state
func (h *PrinterHandler) PowerCycle(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer power cycled", gin.H{
		"flags": h.printer.PowerCycle(),
	})
}

// SelfTest prints the self-test page
func (h *PrinterHandler) SelfTest(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Self-test printed", h.printer.SelfTest())
}

// readBody reads the request body up to the configured limit, answering the
// request itself on failure
func (h *PrinterHandler) readBody(c *gin.Context) ([]byte, bool) {
	limit := h.config.Server.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return nil, false
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return nil, false
	}
	return data, true
}
