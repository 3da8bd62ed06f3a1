package api

import (
	"net/http"
	"strconv"

	"HubAdmin/internal/metrics"
	"HubAdmin/internal/model"
	"HubAdmin/internal/repository"
	"HubAdmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MergeHandler 人工确认的单次合并与合并历史
type MergeHandler struct {
	merges  *service.MergeService
	history *service.HistoryService
	logger  *logrus.Logger
}

func NewMergeHandler(db *gorm.DB, rec *metrics.Recorder, logger *logrus.Logger) *MergeHandler {
	return &MergeHandler{
		merges:  service.NewMergeService(repository.NewMergeRepository(db), rec, logger),
		history: service.NewHistoryService(repository.NewMergeLogRepository(db), logger),
		logger:  logger,
	}
}

// MergeRequest 合并请求体
type MergeRequest struct {
	KeepID   uint64 `json:"keep_id"`
	RemoveID uint64 `json:"remove_id"`
}

// MergeRiders POST /api/riders/merge
func (h *MergeHandler) MergeRiders(c *gin.Context) {
	h.merge(c, model.KindRider)
}

// MergeClubs POST /api/clubs/merge
func (h *MergeHandler) MergeClubs(c *gin.Context) {
	h.merge(c, model.KindClub)
}

func (h *MergeHandler) merge(c *gin.Context, kind model.EntityKind) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	out, err := h.merges.Merge(c.Request.Context(), operatorFrom(c), kind, req.KeepID, req.RemoveID)
	if err != nil {
		writeError(c, h.logger, "Merge", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListMerges 合并审计日志，按时间倒序
// GET /api/merges?kind=riders&keep_id=1&page=1&page_size=20
func (h *MergeHandler) ListMerges(c *gin.Context) {
	var kind model.EntityKind
	if raw := c.Query("kind"); raw != "" {
		k, err := service.ParseKind(raw)
		if err != nil {
			writeError(c, h.logger, "ListMerges", err)
			return
		}
		kind = k
	}
	var keepID uint64
	if raw := c.Query("keep_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "keep_id must be a positive integer"})
			return
		}
		keepID = id
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.history.List(c.Request.Context(), kind, keepID, page, pageSize)
	if err != nil {
		writeError(c, h.logger, "ListMerges", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMerge 单条合并记录详情（含被删除记录的快照）
// GET /api/merges/:uuid
func (h *MergeHandler) GetMerge(c *gin.Context) {
	rec, err := h.history.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		writeError(c, h.logger, "GetMerge", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
