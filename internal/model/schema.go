package model

// Tables 按迁移顺序返回全部表模型
func Tables() []interface{} {
	return []interface{}{
		&Club{},
		&Rider{},
		&Result{},
		&ClubSeasonMembership{},
		&EventRegistration{},
		&MergeLog{},
	}
}
