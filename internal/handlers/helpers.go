package handlers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/events"
)

func httpError(err error) *echo.HTTPError {
	return echo.NewHTTPError(domain.HTTPStatus(err), err.Error())
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// publish sends a fire-and-forget event; failures are logged, never returned.
func publish(c echo.Context, p events.Publisher, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, topic, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}
