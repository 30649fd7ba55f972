package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betbot/gokx/internal/executor"
	"github.com/betbot/gokx/internal/trading"
	"github.com/betbot/gokx/okx/client"
	"github.com/betbot/gokx/okx/ws"
)

// ---- accounts & read-only queries ----

func (s *Server) handleAccounts(c *gin.Context) {
	names := s.exec.Names()
	writeOK(c, gin.H{"accounts": names, "count": len(names)})
}

func (s *Server) handleBalance(c *gin.Context) {
	names := s.queryAccounts(c)
	outcomes := s.exec.Execute(c.Request.Context(), names, executor.GetBalance(c.Query("ccy")))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handlePositions(c *gin.Context) {
	instType := c.DefaultQuery("inst_type", "SWAP")
	names := s.queryAccounts(c)
	outcomes := s.exec.Execute(c.Request.Context(), names, executor.GetPositions(instType, c.Query("inst_id")))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handlePendingOrders(c *gin.Context) {
	instType := c.DefaultQuery("inst_type", "SWAP")
	instID := c.Query("inst_id")
	names := s.queryAccounts(c)
	outcomes := s.exec.Execute(c.Request.Context(), names, executor.GetPendingOrders(instType, instID))
	writeOK(c, byAccount(outcomes))
}

// ---- trading ----

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.OrdType == "" {
		req.OrdType = "market"
	}
	if req.TdMode == "" {
		req.TdMode = "cross"
	}

	intent := trading.OrderIntent{
		InstID:       req.InstID,
		Side:         req.Side,
		OrdType:      req.OrdType,
		TdMode:       req.TdMode,
		Sz:           req.Sz,
		Px:           req.Px,
		PosSide:      req.PosSide,
		SlTriggerPx:  req.SlTriggerPx,
		SlOrdPx:      req.SlOrdPx,
		TpTriggerPx:  req.TpTriggerPx,
		TpOrdPx:      req.TpOrdPx,
		DetachedRisk: req.DetachedRisk,
	}
	outcomes := s.exec.Execute(c.Request.Context(), req.AccountNames,
		trading.OpenPositionOp(intent, s.settings.PositionSizePresets))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handlePlaceOrderByPercentage(c *gin.Context) {
	var req percentageOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.OrdType == "" {
		req.OrdType = "market"
	}
	if req.TdMode == "" {
		req.TdMode = "cross"
	}
	if req.Leverage == 0 {
		req.Leverage = s.settings.DefaultLeverage
	}

	intent := trading.OrderIntent{
		InstID:      req.InstID,
		Side:        req.Side,
		OrdType:     req.OrdType,
		TdMode:      req.TdMode,
		PosSide:     req.PosSide,
		SlTriggerPx: req.SlTriggerPx,
		TpTriggerPx: req.TpTriggerPx,
	}
	outcomes := s.exec.Execute(c.Request.Context(), req.AccountNames,
		trading.OpenPositionByPercentageOp(intent, req.Percentage, req.CurrentPrice, req.Leverage, s.settings.PositionSizePresets))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handleConditionalOrder(c *gin.Context) {
	var req conditionalOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.TdMode == "" {
		req.TdMode = "cross"
	}

	intent := trading.OrderIntent{
		InstID:      req.InstID,
		Side:        req.Side,
		TdMode:      req.TdMode,
		Sz:          req.Sz,
		PosSide:     req.PosSide,
		SlTriggerPx: req.SlTriggerPx,
		TpTriggerPx: req.TpTriggerPx,
	}
	outcomes := s.exec.Execute(c.Request.Context(), req.AccountNames,
		trading.PlaceConditionalOrderOp(intent, req.TriggerPx, req.OrderPx, s.settings.PositionSizePresets))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handleSetLeverage(c *gin.Context) {
	var req leverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.MgnMode == "" {
		req.MgnMode = "cross"
	}
	outcomes := s.exec.Execute(c.Request.Context(), req.AccountNames,
		executor.SetLeverage(req.InstID, req.Lever, req.MgnMode, req.PosSide))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handleCancelAllOrders(c *gin.Context) {
	var req cancelOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	instType := req.InstType
	if instType == "" {
		instType = "SWAP"
	}
	outcomes := s.exec.Execute(c.Request.Context(), req.AccountNames,
		executor.CancelAllOrders(instType, req.InstID))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handleCloseAllPositions(c *gin.Context) {
	var req closePositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	instType := req.InstType
	if instType == "" {
		instType = "SWAP"
	}
	names := s.namesOrAll(req.AccountNames)
	outcomes := s.exec.Execute(c.Request.Context(), names,
		trading.CloseAllPositionsOp(instType, s.settings.PositionSizePresets))
	writeOK(c, byAccount(outcomes))
}

// ---- history & analytics ----

func (s *Server) handleOrderHistory(c *gin.Context) {
	s.handleHistory(c, executor.GetOrderHistory)
}

func (s *Server) handleFillsHistory(c *gin.Context) {
	s.handleHistory(c, executor.GetFillsHistory)
}

func (s *Server) handleHistory(c *gin.Context, op func(client.HistoryQuery) executor.Op) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	q := client.HistoryQuery{
		InstType: req.instTypeOrDefault(),
		InstID:   req.InstID,
		Begin:    req.Begin,
		End:      req.End,
		Limit:    req.Limit,
	}
	names := s.namesOrAll(req.AccountNames)
	outcomes := s.exec.Execute(c.Request.Context(), names, op(q))
	writeOK(c, byAccount(outcomes))
}

func (s *Server) handlePnLSummary(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	q := client.HistoryQuery{
		InstType: req.instTypeOrDefault(),
		Begin:    req.Begin,
		End:      req.End,
		Limit:    req.Limit,
	}
	names := s.namesOrAll(req.AccountNames)
	outcomes := s.exec.Execute(c.Request.Context(), names,
		trading.PnLSummaryOp(q, s.settings.PositionSizePresets))
	writeOK(c, byAccount(outcomes))
}

// ---- market data ----

// marketClient picks the first registered account for public market calls.
func (s *Server) marketClient() *client.Client {
	names := s.exec.Names()
	if len(names) == 0 {
		return nil
	}
	return s.exec.Lookup(names[0])
}

func (s *Server) handleTicker(c *gin.Context) {
	instID := c.Query("inst_id")
	if instID == "" {
		writeFail(c, http.StatusBadRequest, "inst_id is required")
		return
	}

	// 新鲜的 ws 推送直接返回，过期或未订阅时走 REST
	if s.feed != nil {
		if tk, ok := s.feed.Latest(instID); ok {
			c.JSON(http.StatusOK, client.Wrap([]ws.Ticker{tk}))
			return
		}
	}

	mc := s.marketClient()
	if mc == nil {
		writeFail(c, http.StatusInternalServerError, "No accounts configured")
		return
	}
	c.JSON(http.StatusOK, mc.GetTicker(instID))
}

func (s *Server) handleInstruments(c *gin.Context) {
	mc := s.marketClient()
	if mc == nil {
		writeFail(c, http.StatusInternalServerError, "No accounts configured")
		return
	}
	c.JSON(http.StatusOK, mc.GetInstruments(c.DefaultQuery("inst_type", "SWAP")))
}

// ---- signals ----

func (s *Server) handleSignals(c *gin.Context) {
	if s.signals == nil {
		writeOK(c, gin.H{"signals": []any{}, "count": 0})
		return
	}
	force := c.Query("refresh") == "1"
	list := s.signals.Get(c.Request.Context(), force)
	writeOK(c, gin.H{"signals": list, "count": len(list)})
}
