package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"StockPilot/pkg/database"
	"StockPilot/pkg/model"
)

// ReportReader 报告查询数据源
type ReportReader interface {
	RecentReports(limit int) ([]*database.AnalysisReport, error)
	ReportsBySymbol(symbol string, limit int) ([]*database.AnalysisReport, error)
	GetAnalysisContext(symbol string) (*model.AnalysisContext, error)
}

// Handlers API处理程序
type Handlers struct {
	store ReportReader
}

// NewHandlers 创建新的API处理程序
func NewHandlers(store ReportReader) *Handlers {
	return &Handlers{store: store}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// GetRecentReports 获取最近的分析报告
func (h *Handlers) GetRecentReports(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 20)

	reports, err := h.store.RecentReports(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "获取分析报告失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": reports,
	})
}

// GetReportsBySymbol 获取指定标的的历史分析报告
func (h *Handlers) GetReportsBySymbol(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "symbol参数不能为空",
		})
		return
	}
	limit := parseLimit(c.Query("limit"), 10)

	reports, err := h.store.ReportsBySymbol(symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "获取分析报告失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": reports,
	})
}

// GetDailyBars 获取指定标的已入库的日线数据
func (h *Handlers) GetDailyBars(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "symbol参数不能为空",
		})
		return
	}

	actx, err := h.store.GetAnalysisContext(symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "获取日线数据失败: " + err.Error(),
		})
		return
	}
	if actx == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "该标的暂无日线数据",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol": actx.Symbol,
		"data":   actx.Bars,
	})
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 200 {
		return def
	}
	return n
}
