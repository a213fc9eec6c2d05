package handler

import (
	"net/http"

	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/middleware"
	"privacy-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type PixHandler struct {
	pixService service.PixService
}

func NewPixHandler(pixService service.PixService) *PixHandler {
	return &PixHandler{
		pixService: pixService,
	}
}

// CreatePix answers with the gateway's transaction object untouched.
func (h *PixHandler) CreatePix(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	tx, err := h.pixService.CreatePix(ctx, &req, middleware.GetBuyerIP(c))
	if err != nil {
		return createError(err)
	}

	return c.JSONBlob(http.StatusOK, tx.Raw)
}

func (h *PixHandler) CheckPaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.pixService.CheckPaymentStatus(ctx, c.QueryParam("transactionId"))
	if err != nil {
		return statusError(err)
	}

	return c.JSON(http.StatusOK, dto.PaymentStatusResponse{Status: status})
}
