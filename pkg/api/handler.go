package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/chat-invoicing-microservice/pkg/chatparse"
	"github.com/chat-invoicing-microservice/pkg/config"
	"github.com/chat-invoicing-microservice/pkg/invoice"
	"github.com/chat-invoicing-microservice/pkg/pdf"
	"github.com/chat-invoicing-microservice/pkg/upiqr"
)

const serviceName = "Invoice Generator API"

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	cfg       config.Config
	parser    *chatparse.Parser
	allocator *invoice.Allocator
	renderer  *pdf.Renderer
	logger    *zap.Logger
	validate  *validator.Validate
}

// New constructs a Handler.
func New(cfg config.Config, parser *chatparse.Parser, allocator *invoice.Allocator, renderer *pdf.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		parser:    parser,
		allocator: allocator,
		renderer:  renderer,
		logger:    logger,
		validate:  newValidator(),
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/generate-invoice", h.generateInvoice).Methods(http.MethodPost)
	api.HandleFunc("/test-parse", h.testParse).Methods(http.MethodPost)
	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	return h.withRequestLog(h.withRecovery(r))
}

// generateInvoice handles POST /api/generate-invoice.
// @Summary Generate a PDF invoice from chat messages
// @Description Extracts purchased items from free-form chat text, computes GST totals, allocates the next invoice number, embeds a UPI payment QR code and returns the finished PDF.
// @Tags invoices
// @Accept json
// @Produce application/pdf
// @Param request body GenerateInvoiceRequest true "Invoice generation request"
// @Success 200 {file} binary "PDF invoice attachment"
// @Failure 400 {object} errorResponse "Validation failure or no items found"
// @Failure 500 {object} errorResponse "Extraction or rendering failure"
// @Router /generate-invoice [post]
func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err))
		return
	}

	items, err := h.parser.Parse(r.Context(), req.Chats)
	if err != nil {
		h.logger.Error("chat extraction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to parse chat messages", err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "No items found in chat messages",
			"Please ensure your chat messages contain item names and prices")
		return
	}

	totals, err := invoice.CalculateTotals(items, h.cfg.GSTRate)
	if err != nil {
		h.logger.Error("totals calculation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to parse chat messages", err.Error())
		return
	}

	number, err := h.allocator.Next()
	if err != nil {
		h.logger.Error("invoice number allocation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error", "could not allocate invoice number")
		return
	}

	inv := h.buildInvoice(req, number, items, totals)

	qr, err := upiqr.GenerateDataURI(upiqr.Params{
		UPIID:         inv.UPIID,
		PayeeName:     inv.PayeeName,
		Amount:        totals.Total,
		Currency:      h.cfg.Currency,
		InvoiceNumber: number,
	})
	if err != nil {
		h.logger.Error("qr generation failed", zap.Error(err), zap.String("invoice", number))
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF", err.Error())
		return
	}
	inv.QRCodeDataURI = qr

	doc, err := h.renderer.Render(inv)
	if err != nil {
		h.logger.Error("pdf render failed", zap.Error(err), zap.String("invoice", number))
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF", err.Error())
		return
	}

	h.logger.Info("invoice generated",
		zap.String("invoice", number),
		zap.Int("items", len(items)),
		zap.Float64("total", totals.Total),
	)

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%s.pdf", number))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

func (h *Handler) buildInvoice(req GenerateInvoiceRequest, number string, items []invoice.LineItem, totals invoice.Totals) invoice.Invoice {
	issue := time.Now()

	business := invoice.Business{
		Name:      fallback(req.BusinessName, h.cfg.BusinessName),
		Address:   fallback(req.BusinessAddress, h.cfg.BusinessAddress),
		Phone:     fallback(req.BusinessPhone, h.cfg.BusinessPhone),
		Email:     fallback(req.BusinessEmail, h.cfg.BusinessEmail),
		GSTNumber: fallback(req.BusinessGST, h.cfg.BusinessGST),
	}

	return invoice.Invoice{
		Number:    number,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 7),
		Business:  business,
		Customer: invoice.Customer{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: req.CustomerEmail,
		},
		UPIID:     req.UPIID,
		PayeeName: fallback(req.PayeeName, business.Name),
		Items:     items,
		Totals:    totals,
	}
}

// testParse handles POST /api/test-parse. It runs extraction and totals
// without rendering, for diagnostics.
// @Summary Parse chat messages without generating a PDF
// @Tags diagnostics
// @Accept json
// @Produce json
// @Param request body TestParseRequest true "Chat messages"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /test-parse [post]
func (h *Handler) testParse(w http.ResponseWriter, r *http.Request) {
	var req TestParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err))
		return
	}

	items, err := h.parser.Parse(r.Context(), req.Chats)
	if err != nil {
		h.logger.Error("chat extraction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to parse chat messages", err.Error())
		return
	}

	totals, err := invoice.CalculateTotals(items, h.cfg.GSTRate)
	if err != nil {
		if errors.Is(err, invoice.ErrInvalidItem) {
			writeError(w, http.StatusInternalServerError, "Failed to parse chat messages", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"totals": totals,
	})
}

// health handles GET /api/health.
// @Summary Liveness probe
// @Tags diagnostics
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// status handles GET /api/status: non-secret configuration echo.
// @Summary Service configuration status
// @Tags diagnostics
// @Produce json
// @Success 200 {object} map[string]any
// @Router /status [get]
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"gemini_configured":  h.cfg.GeminiConfigured(),
		"business_name":      h.cfg.BusinessName,
		"currency":           h.cfg.Currency,
		"tax_rate_percent":   h.cfg.GSTRate * 100,
		"invoice_prefix":     h.cfg.InvoicePrefix,
		"business_phone_set": h.cfg.BusinessPhone != "",
		"business_email_set": h.cfg.BusinessEmail != "",
		"business_gst_set":   h.cfg.BusinessGST != "",
	})
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}
