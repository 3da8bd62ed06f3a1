package config

import (
	"fmt"
	"os"
	"time"

	"HubAdmin/internal/classify"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

// Config 对应 config/config.yaml
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Dedupe   DedupeConfig   `mapstructure:"dedupe"`
}

// ServerConfig gin 服务配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug/release/test
}

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent/error/warn/info
}

// LogConfig logrus 配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DedupeConfig 查重与合并用到的全部阈值，分数范围 0..100
type DedupeConfig struct {
	RiderThreshold       int `mapstructure:"rider_threshold"`        // 车手 safe/conflict 分界
	ClubThreshold        int `mapstructure:"club_threshold"`         // 俱乐部 exact/containment 分组的分界
	ClubWindowThreshold  int `mapstructure:"club_window_threshold"`  // 俱乐部 name-window 分组的分界
	WindowMinScore       int `mapstructure:"window_min_score"`       // name-window 策略成对所需分数
	WindowSize           int `mapstructure:"window_size"`            // 每条记录向后比较的数量
	GivenNameMinScore    int `mapstructure:"given_name_min_score"`   // attribute-key 名字相似度门槛
	ContainmentMinScore  int `mapstructure:"containment_min_score"`  // 俱乐部模糊匹配分数
	ContainmentPrefixMin int `mapstructure:"containment_prefix_min"` // 前缀包含的最小长度
	LicenseMinLength     int `mapstructure:"license_min_length"`     // 清洗后 license 的最小长度
	MaxGroups            int `mapstructure:"max_groups"`             // 单次报告的分组上限
	BatchSize            int `mapstructure:"batch_size"`             // 每次 apply 的合并数量
}

// LoadConfig 读取 ./config/config.yaml，.env 和环境变量优先
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从 dir 读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. .env 可选
	_ = godotenv.Load()

	// 2. 在默认值之上读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 环境变量覆盖
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("log.level", "info")

	d := DefaultDedupe()
	v.SetDefault("dedupe.rider_threshold", d.RiderThreshold)
	v.SetDefault("dedupe.club_threshold", d.ClubThreshold)
	v.SetDefault("dedupe.club_window_threshold", d.ClubWindowThreshold)
	v.SetDefault("dedupe.window_min_score", d.WindowMinScore)
	v.SetDefault("dedupe.window_size", d.WindowSize)
	v.SetDefault("dedupe.given_name_min_score", d.GivenNameMinScore)
	v.SetDefault("dedupe.containment_min_score", d.ContainmentMinScore)
	v.SetDefault("dedupe.containment_prefix_min", d.ContainmentPrefixMin)
	v.SetDefault("dedupe.license_min_length", d.LicenseMinLength)
	v.SetDefault("dedupe.max_groups", d.MaxGroups)
	v.SetDefault("dedupe.batch_size", d.BatchSize)
}

// DefaultDedupe 内置阈值
func DefaultDedupe() DedupeConfig {
	return DedupeConfig{
		RiderThreshold:       classify.DefaultRiderThreshold,
		ClubThreshold:        classify.DefaultClubThreshold,
		ClubWindowThreshold:  85,
		WindowMinScore:       85,
		WindowSize:           20,
		GivenNameMinScore:    50,
		ContainmentMinScore:  75,
		ContainmentPrefixMin: 4,
		LicenseMinLength:     8,
		MaxGroups:            100,
		BatchSize:            25,
	}
}

// overrideFromEnv 敏感配置不写进 yaml
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
}

// GormLogLevel 把 database.log_level 映射到 gorm 日志级别
func (d *DatabaseConfig) GormLogLevel() logger.LogLevel {
	switch d.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
