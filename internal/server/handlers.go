package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rickgao/stockwatch/internal/api"
	"github.com/rickgao/stockwatch/internal/display"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/version"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 5000
)

type healthResponse struct {
	Status     string         `json:"status"`
	Build      version.Info   `json:"build"`
	Components map[string]any `json:"components"`
}

func (s *Server) health(c *gin.Context) {
	h := healthResponse{
		Status:     "healthy",
		Build:      version.Get(),
		Components: make(map[string]any),
	}

	if s.deps.BreakerState != nil {
		state := s.deps.BreakerState()
		h.Components["upstream"] = state
		if state == "open" {
			h.Status = "degraded"
		}
	}

	if p, ok := s.deps.History.(interface{ Ping(context.Context) error }); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			h.Status = "unhealthy"
			h.Components["history"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			h.Components["history"] = "connected"
		}
	}

	groups := s.deps.Service.Groups()
	h.Components["groups"] = len(groups)

	code := http.StatusOK
	if h.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, h)
}

func (s *Server) listGroups(c *gin.Context) {
	Success(c, s.deps.Service.Groups())
}

type addGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) addGroup(c *gin.Context) {
	var req addGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.deps.Service.AddGroup(req.Name); err != nil {
		s.failErr(c, err)
		return
	}
	Success(c, gin.H{"name": req.Name})
}

func (s *Server) removeGroup(c *gin.Context) {
	group := c.Param("group")
	if err := s.deps.Service.RemoveGroup(group); err != nil {
		s.failErr(c, err)
		return
	}
	if s.deps.Publisher != nil {
		s.deps.Publisher.Forget(group)
	}
	Success(c, nil)
}

func (s *Server) groupRows(c *gin.Context) {
	group, rows, err := s.deps.Service.Rows(c.Param("group"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	Success(c, display.NewSnapshot(group, uuid.Nil, rows, s.deps.Palette))
}

type addSymbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (s *Server) addSymbol(c *gin.Context) {
	var req addSymbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "symbol is required")
		return
	}
	group := c.Param("group")
	row, err := s.deps.Service.AddSymbol(c.Request.Context(), group, req.Symbol)
	if err != nil {
		s.failErr(c, err)
		return
	}
	s.refresh(group)
	Success(c, display.NewRowView(row, s.deps.Palette))
}

func (s *Server) removeSymbol(c *gin.Context) {
	group := c.Param("group")
	if err := s.deps.Service.RemoveSymbol(group, c.Param("symbol")); err != nil {
		s.failErr(c, err)
		return
	}
	s.refresh(group)
	Success(c, nil)
}

func (s *Server) klines(c *gin.Context) {
	params := api.KlineParams{
		Begin: c.Query("beg"),
		End:   c.Query("end"),
	}
	var err error
	if params.Period, err = queryInt(c, "period", api.PeriodDaily); err != nil {
		Fail(c, http.StatusBadRequest, "period must be an integer")
		return
	}
	if params.Adjust, err = queryInt(c, "adjust", api.AdjustNone); err != nil {
		Fail(c, http.StatusBadRequest, "adjust must be an integer")
		return
	}

	klines, err := s.deps.Service.Klines(c.Request.Context(), c.Param("symbol"), params)
	if err != nil {
		s.failErr(c, err)
		return
	}
	Success(c, klines)
}

// historyRow is the JSON form of a stored quote.
type historyRow struct {
	CycleID      uuid.UUID `json:"cycle_id"`
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	PreClose     float64   `json:"pre_close"`
	Price        float64   `json:"price"`
	ChangeRate   float64   `json:"change_rate"`
	ChangeAmount float64   `json:"change_amount"`
	FetchedAt    time.Time `json:"fetched_at"`
}

func (s *Server) history(c *gin.Context) {
	if s.deps.History == nil {
		Fail(c, http.StatusNotFound, "history is disabled")
		return
	}
	sym, err := model.ParseSymbol(c.Param("symbol"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	limit, err := queryInt(c, "limit", defaultHistoryLimit)
	if err != nil || limit <= 0 {
		Fail(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := s.deps.History.History(c.Request.Context(), sym.Key(), limit)
	if err != nil {
		s.failErr(c, err)
		return
	}
	out := make([]historyRow, len(rows))
	for i, r := range rows {
		out[i] = historyRow{
			CycleID:      r.CycleID,
			Key:          r.SymbolKey,
			Name:         r.Name,
			PreClose:     r.PreClose,
			Price:        r.Price,
			ChangeRate:   r.ChangeRate,
			ChangeAmount: r.ChangeAmount,
			FetchedAt:    r.FetchedAt,
		}
	}
	Success(c, out)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
