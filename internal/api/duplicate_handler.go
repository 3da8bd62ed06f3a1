package api

import (
	"net/http"
	"strconv"

	"HubAdmin/internal/config"
	"HubAdmin/internal/metrics"
	"HubAdmin/internal/repository"
	"HubAdmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DuplicateHandler 查重分析与批量合并
type DuplicateHandler struct {
	duplicates *service.DuplicateService
	logger     *logrus.Logger
}

func NewDuplicateHandler(db *gorm.DB, cfg config.DedupeConfig, rec *metrics.Recorder, logger *logrus.Logger) *DuplicateHandler {
	merges := service.NewMergeService(repository.NewMergeRepository(db), rec, logger)
	svc := service.NewDuplicateService(repository.NewCandidateRepository(db), merges, cfg, rec, logger)
	return &DuplicateHandler{duplicates: svc, logger: logger}
}

// Preview 分组并分类，不写库
// GET /api/duplicates/:kind   （kind = riders | clubs）
func (h *DuplicateHandler) Preview(c *gin.Context) {
	kind, err := service.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, h.logger, "Preview", err)
		return
	}

	report, err := h.duplicates.Preview(c.Request.Context(), kind)
	if err != nil {
		writeError(c, h.logger, "Preview", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ApplySafe 合并一批 safe 候选
// POST /api/duplicates/:kind/apply?offset=0&limit=25
func (h *DuplicateHandler) ApplySafe(c *gin.Context) {
	kind, err := service.ParseKind(c.Param("kind"))
	if err != nil {
		writeError(c, h.logger, "ApplySafe", err)
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a number"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}

	result, err := h.duplicates.ApplySafe(c.Request.Context(), operatorFrom(c), kind, offset, limit)
	if err != nil {
		writeError(c, h.logger, "ApplySafe", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
