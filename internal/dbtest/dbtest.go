// Package dbtest 为测试提供已迁移的临时数据库
package dbtest

import (
	"path/filepath"
	"testing"

	"HubAdmin/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 在 t.TempDir 下新建 SQLite 文件并迁移全部表。
// 与生产环境的 Postgres 一样开启 TranslateError。
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "hub.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Tables()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func Ptr[T any](v T) *T { return &v }
