package model

import (
	"strings"
	"time"
)

// Rider 车手。可选字段用指针，合并回填时区分"空"和零值。
type Rider struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName     string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName      string    `gorm:"column:last_name;type:varchar(100);not null;index"`
	BirthYear     *int      `gorm:"column:birth_year;type:int"`
	Gender        *string   `gorm:"column:gender;type:varchar(1)"`
	ClubID        *uint64   `gorm:"column:club_id;type:bigint;index"`
	LicenseNumber *string   `gorm:"column:license_number;type:varchar(32);index"` // 国家协会 license，如 SWE2500123
	UCIID         *string   `gorm:"column:uci_id;type:varchar(32);index"`         // UCI ID，11 位
	Nationality   *string   `gorm:"column:nationality;type:varchar(3)"`
	Email         *string   `gorm:"column:email;type:varchar(256)"`
	Phone         *string   `gorm:"column:phone;type:varchar(32)"`
	Active        bool      `gorm:"column:active;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Rider) TableName() string { return "riders" }

// FullName "名 姓"
func (r *Rider) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Completeness 选择 keep 时使用的资料完整度
func (r *Rider) Completeness() int {
	n := 0
	if r.BirthYear != nil {
		n++
	}
	if r.ClubID != nil {
		n++
	}
	return n
}
