package model

import (
	"strings"
	"time"
)

// Club 俱乐部，数据库不保证名称唯一
type Club struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(256);not null;index"`
	ShortName *string   `gorm:"column:short_name;type:varchar(64)"`
	City      *string   `gorm:"column:city;type:varchar(128)"`
	Region    *string   `gorm:"column:region;type:varchar(128)"`
	Active    bool      `gorm:"column:active;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Club) TableName() string { return "clubs" }

// Completeness short_name 与 city 的填充数
func (c *Club) Completeness() int {
	n := 0
	if c.ShortName != nil && strings.TrimSpace(*c.ShortName) != "" {
		n++
	}
	if c.City != nil && strings.TrimSpace(*c.City) != "" {
		n++
	}
	return n
}
