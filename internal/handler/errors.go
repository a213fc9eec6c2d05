package handler

import (
	"errors"
	"fmt"
	"net/http"

	"privacy-checkout/internal/amount"
	"privacy-checkout/internal/client"
	"privacy-checkout/internal/pix"
	"privacy-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "Erro interno do servidor"

// createError maps a create-pix failure to the response the storefront sees.
// Gateway failures keep the upstream status and body.
func createError(err error) *echo.HTTPError {
	var gwErr *client.GatewayError
	switch {
	case errors.Is(err, amount.ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.As(err, &gwErr):
		return echo.NewHTTPError(upstreamStatus(gwErr), gwErr.Error()).SetInternal(err)
	case errors.Is(err, pix.ErrPixPayloadMissing):
		return echo.NewHTTPError(http.StatusBadGateway, pix.ErrPixPayloadMissing.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internalErrorMessage).SetInternal(err)
	}
}

func statusError(err error) *echo.HTTPError {
	var gwErr *client.GatewayError
	switch {
	case errors.Is(err, service.ErrMissingParameter):
		return echo.NewHTTPError(http.StatusBadRequest, "transactionId é obrigatório").SetInternal(err)
	case errors.As(err, &gwErr):
		return echo.NewHTTPError(upstreamStatus(gwErr), fmt.Sprintf("Erro ao consultar transação: %d", gwErr.StatusCode)).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internalErrorMessage).SetInternal(err)
	}
}

// upstreamStatus guards against providers answering with codes net/http
// refuses to write.
func upstreamStatus(gwErr *client.GatewayError) int {
	if gwErr.StatusCode < 400 || gwErr.StatusCode > 599 {
		return http.StatusBadGateway
	}
	return gwErr.StatusCode
}
