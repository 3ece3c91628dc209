package handlers

import (
	"context"
	"encoding/base64"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/veritag/veritag/app/dto"
	"github.com/veritag/veritag/app/services"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/models"
)

// QRHandlerInterface defines the contract for brand-facing QR code endpoints
type QRHandlerInterface interface {
	GenerateQRCode(c fiber.Ctx) error
	RegenerateQRCode(c fiber.Ctx) error
	GetAnalytics(c fiber.Ctx) error
	ExportAnalytics(c fiber.Ctx) error
	GetImage(c fiber.Ctx) error
}

// QRHandler handles issuance, rotation and analytics HTTP requests
type QRHandler struct {
	issuanceFlow  businessflow.QRIssuanceFlow
	analyticsFlow businessflow.AnalyticsFlow
	imageService  *services.QRImageService
	validator     *validator.Validate
}

func NewQRHandler(
	issuanceFlow businessflow.QRIssuanceFlow,
	analyticsFlow businessflow.AnalyticsFlow,
	imageService *services.QRImageService,
) *QRHandler {
	return &QRHandler{
		issuanceFlow:  issuanceFlow,
		analyticsFlow: analyticsFlow,
		imageService:  imageService,
		validator:     validator.New(),
	}
}

func (h *QRHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QRHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GenerateQRCode issues a code for a product, returning the existing active
// code when one is already live
// @Summary Generate QR Code
// @Description Issue a unique code for a product. Idempotent: if an active code exists it is returned unchanged.
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param request body dto.GenerateQRCodeRequest true "Issuance data"
// @Success 201 {object} dto.APIResponse{data=dto.GenerateQRCodeResponse} "Code issued"
// @Success 200 {object} dto.APIResponse{data=dto.GenerateQRCodeResponse} "Existing active code returned"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Product not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/generate [post]
func (h *QRHandler) GenerateQRCode(c fiber.Ctx) error {
	var req dto.GenerateQRCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	qr, reused, err := h.issuanceFlow.Issue(h.createRequestContext(c, "/api/v1/qr/generate"), req.ProductID)
	if err != nil {
		return h.issuanceError(c, err, "Code issuance failed", "CODE_ISSUANCE_FAILED")
	}

	resp := dto.GenerateQRCodeResponse{
		Message:  "Code issued successfully",
		Item:     h.mapQRCodeDTO(qr),
		Reissued: reused,
	}
	status := fiber.StatusCreated
	if reused {
		resp.Message = "Active code already exists for product"
		status = fiber.StatusOK
	}
	if png, renderErr := h.imageService.RenderPNG(qr.Code); renderErr == nil {
		resp.ImagePNG = base64.StdEncoding.EncodeToString(png)
	} else {
		log.Println("QR image rendering failed", renderErr)
	}

	return h.SuccessResponse(c, status, resp.Message, resp)
}

// RegenerateQRCode rotates a product's code to a new version
// @Summary Regenerate QR Code
// @Description Deactivate the product's current code and activate a fresh one. The old code keeps resolving with is_current=false.
// @Tags QRCodes
// @Produce json
// @Param productId path int true "Product ID"
// @Success 201 {object} dto.APIResponse{data=dto.RegenerateQRCodeResponse} "Code rotated"
// @Failure 400 {object} dto.APIResponse "Invalid product ID"
// @Failure 404 {object} dto.APIResponse "Product not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{productId}/regenerate [post]
func (h *QRHandler) RegenerateQRCode(c fiber.Ctx) error {
	productID, err := h.productIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product ID", "INVALID_PRODUCT_ID", nil)
	}

	qr, err := h.issuanceFlow.Regenerate(h.createRequestContext(c, "/api/v1/qr/:productId/regenerate"), productID)
	if err != nil {
		return h.issuanceError(c, err, "Code regeneration failed", "CODE_REGENERATION_FAILED")
	}

	resp := dto.RegenerateQRCodeResponse{
		Message: "Code regenerated successfully",
		Item:    h.mapQRCodeDTO(qr),
	}
	return h.SuccessResponse(c, fiber.StatusCreated, resp.Message, resp)
}

// GetAnalytics returns the aggregated scan analytics for a product
// @Summary Get Scan Analytics
// @Description Aggregate scan counts, unique visitors, daily and country breakdowns across every code version the product has had.
// @Tags Analytics
// @Produce json
// @Param productId path int true "Product ID"
// @Param from query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsSnapshot} "Analytics snapshot"
// @Failure 400 {object} dto.APIResponse "Invalid product ID or date range"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{productId}/analytics [get]
func (h *QRHandler) GetAnalytics(c fiber.Ctx) error {
	productID, err := h.productIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product ID", "INVALID_PRODUCT_ID", nil)
	}

	after, before, err := h.rangeParams(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
	}

	snapshot, err := h.analyticsFlow.Summarize(h.createRequestContext(c, "/api/v1/qr/:productId/analytics"), productID, after, before)
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Range start must not be after range end", "INVALID_DATE_RANGE", nil)
		}
		log.Println("Analytics aggregation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Analytics aggregation failed", "ANALYTICS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Analytics generated successfully", snapshot)
}

// ExportAnalytics streams the product's scan ledger as an Excel workbook
// @Summary Export Scan Ledger
// @Description Download the full scan ledger as an Excel workbook, one sheet per code version.
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param productId path int true "Product ID"
// @Param from query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {file} binary "Excel workbook"
// @Failure 400 {object} dto.APIResponse "Invalid product ID or date range"
// @Failure 404 {object} dto.APIResponse "No codes issued for product"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{productId}/analytics/export [get]
func (h *QRHandler) ExportAnalytics(c fiber.Ctx) error {
	productID, err := h.productIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product ID", "INVALID_PRODUCT_ID", nil)
	}

	after, before, err := h.rangeParams(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
	}

	// Export walks the full ledger; give it more room than the default
	ctx := createRequestContextWithTimeout(c, "/api/v1/qr/:productId/analytics/export", 60*time.Second)
	filename, content, err := h.analyticsFlow.ExportScans(ctx, productID, after, before)
	if err != nil {
		if businessflow.IsNoActiveCode(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No codes issued for product", "NO_CODES_FOR_PRODUCT", nil)
		}
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Range start must not be after range end", "INVALID_DATE_RANGE", nil)
		}
		log.Println("Scan export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Scan export failed", "EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(content)
}

// GetImage renders the product's active code as a PNG
// @Summary Get QR Image
// @Description Render the product's current active code as a scannable PNG.
// @Tags QRCodes
// @Produce image/png
// @Param productId path int true "Product ID"
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} dto.APIResponse "Invalid product ID"
// @Failure 404 {object} dto.APIResponse "No active code for product"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{productId}/image [get]
func (h *QRHandler) GetImage(c fiber.Ctx) error {
	productID, err := h.productIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid product ID", "INVALID_PRODUCT_ID", nil)
	}

	// Issue is idempotent, so it doubles as the active-code lookup here
	qr, _, err := h.issuanceFlow.Issue(h.createRequestContext(c, "/api/v1/qr/:productId/image"), productID)
	if err != nil {
		return h.issuanceError(c, err, "QR image rendering failed", "IMAGE_RENDER_FAILED")
	}

	png, err := h.imageService.RenderPNG(qr.Code)
	if err != nil {
		log.Println("QR image rendering failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR image rendering failed", "IMAGE_RENDER_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Status(fiber.StatusOK).Send(png)
}

func (h *QRHandler) issuanceError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsProductNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Product not found", "PRODUCT_NOT_FOUND", nil)
	}
	if businessflow.IsCodeSpaceExhausted(err) {
		log.Println("Code generation exhausted retries", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate a unique code", "CODE_SPACE_EXHAUSTED", nil)
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

func (h *QRHandler) mapQRCodeDTO(qr *models.QRCode) dto.QRCodeDTO {
	return dto.QRCodeDTO{
		UUID:      qr.UUID.String(),
		ProductID: qr.ProductID,
		Code:      qr.Code,
		Version:   qr.Version,
		IsActive:  qr.IsActive,
		ScanCount: qr.ScanCount,
		ShortURL:  h.imageService.ShortURL(qr.Code),
		CreatedAt: qr.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *QRHandler) productIDParam(c fiber.Ctx) (uint, error) {
	raw := c.Params("productId")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(parsed), nil
}

func (h *QRHandler) rangeParams(c fiber.Ctx) (*time.Time, *time.Time, error) {
	after, err := parseTimeParam(c.Query("from"))
	if err != nil {
		return nil, nil, err
	}
	before, err := parseTimeParam(c.Query("to"))
	if err != nil {
		return nil, nil, err
	}
	return after, before, nil
}

// parseTimeParam accepts RFC3339 timestamps or bare dates
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *QRHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}
