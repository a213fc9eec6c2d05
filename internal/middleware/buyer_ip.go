package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	BuyerIPKey = "buyer_ip"

	loopbackIP = "127.0.0.1"
)

// BuyerIP stores the client address announced by the proxy in front of us.
// The headers are trivially spoofable; the value is only forwarded to the
// gateway alongside a synthetic customer, never trusted.
func BuyerIP() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(BuyerIPKey, buyerIP(c.Request().Header.Get(echo.HeaderXForwardedFor), c.Request().Header.Get(echo.HeaderXRealIP)))
			return next(c)
		}
	}
}

func buyerIP(forwardedFor, realIP string) string {
	if first, _, _ := strings.Cut(forwardedFor, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(realIP); ip != "" {
		return ip
	}
	return loopbackIP
}

// GetBuyerIP reads the value set by BuyerIP, falling back to loopback.
func GetBuyerIP(c echo.Context) string {
	if ip, ok := c.Get(BuyerIPKey).(string); ok && ip != "" {
		return ip
	}
	return loopbackIP
}
