package model

// Result 车手在某场赛事中的成绩
type Result struct {
	ID        uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	EventID   uint64  `gorm:"column:event_id;type:bigint;not null;index:idx_results_event_rider"`
	RiderID   uint64  `gorm:"column:rider_id;type:bigint;not null;index;index:idx_results_event_rider"`
	ClubID    *uint64 `gorm:"column:club_id;type:bigint;index"`
	ClassName string  `gorm:"column:class_name;type:varchar(64)"`
	Position  *int    `gorm:"column:position;type:int"`
	Points    float64 `gorm:"column:points;type:numeric(10,2);default:0"`
}

func (Result) TableName() string { return "results" }

// ClubSeasonMembership 车手某赛季所属俱乐部，(rider, season) 唯一
type ClubSeasonMembership struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	RiderID uint64 `gorm:"column:rider_id;type:bigint;not null;uniqueIndex:uq_membership_rider_season"`
	ClubID  uint64 `gorm:"column:club_id;type:bigint;not null;index"`
	Season  int    `gorm:"column:season;type:int;not null;uniqueIndex:uq_membership_rider_season"`
}

func (ClubSeasonMembership) TableName() string { return "club_season_memberships" }

// EventRegistration 赛事报名，(event, rider) 唯一
type EventRegistration struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID uint64 `gorm:"column:event_id;type:bigint;not null;uniqueIndex:uq_registration_event_rider"`
	RiderID uint64 `gorm:"column:rider_id;type:bigint;not null;uniqueIndex:uq_registration_event_rider"`
	Status  string `gorm:"column:status;type:varchar(16);default:confirmed"`
}

func (EventRegistration) TableName() string { return "event_registrations" }
