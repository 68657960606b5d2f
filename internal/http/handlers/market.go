package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type MarketHandler struct {
	market services.MarketService
}

func NewMarketHandler(market services.MarketService) *MarketHandler {
	return &MarketHandler{market: market}
}

func marketQuery(c *gin.Context) (services.MarketQuery, error) {
	q := services.MarketQuery{
		Start:    c.Query("start"),
		Interval: c.Query("interval"),
	}
	if v := strings.TrimSpace(c.Query("hours")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("hours must be an integer, got %q", v)
		}
		q.Hours = n
	}
	if v := strings.TrimSpace(c.Query("indicators")); v != "" {
		q.Indicators = strings.Split(v, ",")
	}
	return q, nil
}

// GET /market/indicators?start=...&hours=48&interval=5m&indicators=VIX,TNX,DXY
func (h *MarketHandler) Indicators(c *gin.Context) {
	q, err := marketQuery(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_hours", err)
		return
	}
	res, err := h.market.Indicators(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err, "market_indicators_failed")
		return
	}
	response.RespondOK(c, res)
}

// GET /market/stock/:ticker?start=...&hours=48&interval=5m
func (h *MarketHandler) Stock(c *gin.Context) {
	q, err := marketQuery(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_hours", err)
		return
	}
	res, err := h.market.Stock(c.Request.Context(), c.Param("ticker"), q)
	if err != nil {
		response.RespondAPIError(c, err, "market_stock_failed")
		return
	}
	response.RespondOK(c, res)
}
