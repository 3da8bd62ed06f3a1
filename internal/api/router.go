package api

import (
	"HubAdmin/internal/config"
	"HubAdmin/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterRoutes 注册管理 API 与 metrics 接口
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, rec *metrics.Recorder, logger *logrus.Logger) {
	dupHandler := NewDuplicateHandler(db, cfg.Dedupe, rec, logger)
	mergeHandler := NewMergeHandler(db, rec, logger)

	apiGroup := r.Group("/api", OperatorMiddleware())
	apiGroup.GET("/duplicates/:kind", dupHandler.Preview)
	apiGroup.POST("/duplicates/:kind/apply", dupHandler.ApplySafe)
	apiGroup.POST("/riders/merge", mergeHandler.MergeRiders)
	apiGroup.POST("/clubs/merge", mergeHandler.MergeClubs)
	apiGroup.GET("/merges", mergeHandler.ListMerges)
	apiGroup.GET("/merges/:uuid", mergeHandler.GetMerge)

	r.GET("/metrics", gin.WrapH(rec.Handler()))
}
