package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/betbot/controlpanel/internal/view"
	"github.com/gin-gonic/gin"
)

type pageData struct {
	Tree      view.Tree
	Refresh   int
	FetchedAt string
	Now       string
}

// stateResponse /api/state 的返回体
type stateResponse struct {
	Loading     bool                      `json:"loading"`
	Error       string                    `json:"error,omitempty"`
	HasData     bool                      `json:"has_data"`
	Status      domain.Status             `json:"status"`
	Performance domain.PerformanceMetrics `json:"performance"`
	Positions   []domain.Position         `json:"positions"`
	Trades      []domain.Trade            `json:"trades"`
	Account     domain.Account            `json:"account"`
	FetchedAt   *time.Time                `json:"fetched_at,omitempty"`
}

func newStateResponse(st domain.State) stateResponse {
	resp := stateResponse{
		Loading:     st.Loading,
		Error:       st.Err,
		HasData:     st.HasData,
		Status:      st.Snapshot.Status,
		Performance: st.Snapshot.Performance,
		Positions:   st.Snapshot.Positions,
		Trades:      st.Snapshot.Trades,
		Account:     st.Snapshot.Account,
	}
	if resp.Positions == nil {
		resp.Positions = []domain.Position{}
	}
	if resp.Trades == nil {
		resp.Trades = []domain.Trade{}
	}
	if !st.Snapshot.FetchedAt.IsZero() {
		t := st.Snapshot.FetchedAt
		resp.FetchedAt = &t
	}
	return resp
}

func (s *Server) handleIndex(c *gin.Context) {
	st := s.ctrl.State()
	data := pageData{
		Tree:    view.Render(st, s.cfg.Location),
		Refresh: s.refreshSeconds(st.Running()),
		Now:     time.Now().In(s.cfg.Location).Format("15:04:05"),
	}
	if !st.Snapshot.FetchedAt.IsZero() {
		data.FetchedAt = st.Snapshot.FetchedAt.In(s.cfg.Location).Format("15:04:05")
	}
	c.HTML(http.StatusOK, "index", data)
}

// refreshSeconds 策略运行时按快节奏刷新页面
func (s *Server) refreshSeconds(running bool) int {
	d := s.cfg.BaseInterval
	if running {
		d = s.cfg.FastInterval
	}
	sec := int(d.Round(time.Second) / time.Second)
	if sec < 1 {
		sec = 1
	}
	return sec
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(s.ctrl.State()))
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.ctrl.RequestRefresh()
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// handleAction 执行动作后跳回首页；错误已经写进控制器状态，由页面横幅展示
func (s *Server) handleAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.TrimPrefix(c.Param("symbol"), "/")
		if action == view.ActionClose && symbol == "" {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing symbol"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.ActionTimeout)
		defer cancel()

		var err error
		switch action {
		case view.ActionStart:
			err = s.ctrl.StartStrategy(ctx)
		case view.ActionStop:
			err = s.ctrl.StopStrategy(ctx)
		case view.ActionClose:
			err = s.ctrl.ClosePosition(ctx, symbol)
		}
		if err != nil {
			log.WithField("action", action).Warnf("动作失败: %v", err)
		}

		if wantsJSON(c) {
			if err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
