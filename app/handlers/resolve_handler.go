package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/veritag/veritag/app/dto"
	businessflow "github.com/veritag/veritag/business_flow"
	"github.com/veritag/veritag/utils"
)

// ResolveHandlerInterface defines the contract for public code resolution
type ResolveHandlerInterface interface {
	Resolve(c fiber.Ctx) error
}

// ResolveHandler serves the anonymous hot path behind printed QR codes
type ResolveHandler struct {
	flow businessflow.ResolutionFlow
}

func NewResolveHandler(flow businessflow.ResolutionFlow) ResolveHandlerInterface {
	return &ResolveHandler{flow: flow}
}

// Resolve returns product and validation state for a scanned code
// @Summary Resolve QR Code
// @Description Resolve a scanned code to its product and latest validation state. Superseded codes keep resolving with is_current=false.
// @Tags Resolution
// @Produce json
// @Param code path string true "Code token"
// @Success 200 {object} dto.APIResponse{data=dto.ResolveResponse} "Code resolved"
// @Failure 404 {object} dto.APIResponse "Unknown code"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /v/{code} [get]
func (h *ResolveHandler) Resolve(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return h.notFound(c)
	}

	meta := businessflow.NewScanMetadata(c.IP(), c.Get("User-Agent"), c.Get("Referer"))
	meta.RequestID = c.Get("X-Request-ID")

	result, err := h.flow.Resolve(h.createRequestContext(c, "/v/"+code), code, meta)
	if err != nil {
		// Unknown and retired-product codes share one response so the public
		// surface never confirms whether a token was ever issued.
		if businessflow.IsUnknownCode(err) {
			return h.notFound(c)
		}
		log.Println("Code resolution failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Resolution failed",
			Error:   dto.ErrorDetail{Code: "RESOLUTION_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Code resolved",
		Data:    mapResolveResponse(result),
	})
}

func (h *ResolveHandler) notFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "Code not found",
		Error:   dto.ErrorDetail{Code: "CODE_NOT_FOUND"},
	})
}

func mapResolveResponse(result *businessflow.ResolveResult) dto.ResolveResponse {
	resp := dto.ResolveResponse{
		Product: dto.ProductDTO{
			ID:       result.Product.ID,
			Name:     result.Product.Name,
			Brand:    result.Product.Brand,
			SKU:      result.Product.SKU,
			Category: result.Product.Category,
			Status:   result.Product.Status,
		},
		IsCurrent:  result.IsCurrent,
		AccessedAt: result.AccessedAt.Format(time.RFC3339),
	}
	if result.Validation != nil {
		resp.IsValidated = true
		resp.Validation = &dto.ValidationDTO{
			Status:      result.Validation.Status,
			Laboratory:  result.Validation.Laboratory,
			Summary:     result.Validation.Summary,
			ValidatedAt: result.Validation.ValidatedAt.UTC().Format(time.RFC3339),
		}
		resp.LastUpdated = resp.Validation.ValidatedAt
	}
	return resp
}

func (h *ResolveHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
