package repository

import (
	"context"
	"errors"
	"testing"

	"HubAdmin/internal/dbtest"
	"HubAdmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedRider(t *testing.T, db *gorm.DB, r *model.Rider) *model.Rider {
	t.Helper()
	require.NoError(t, db.Create(r).Error)
	return r
}

func seedResults(t *testing.T, db *gorm.DB, riderID uint64, eventIDs ...uint64) {
	t.Helper()
	for _, e := range eventIDs {
		require.NoError(t, db.Create(&model.Result{EventID: e, RiderID: riderID, ClassName: "H21"}).Error)
	}
}

func countWhere(t *testing.T, db *gorm.DB, table interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(table).Where(query, args...).Count(&n).Error)
	return n
}

func TestCandidateRepository_RiderCandidates(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	club := &model.Club{Name: "CK Fix"}
	require.NoError(t, db.Create(club).Error)
	anna := seedRider(t, db, &model.Rider{
		FirstName: "Anna", LastName: "Andersson", BirthYear: dbtest.Ptr(1990), ClubID: &club.ID,
		LicenseNumber: dbtest.Ptr(" SWE2500123 "), UCIID: dbtest.Ptr("10012345678"),
	})
	erik := seedRider(t, db, &model.Rider{FirstName: "Erik", LastName: "Svensson", UCIID: dbtest.Ptr("  ")})
	seedResults(t, db, anna.ID, 1, 2, 3)

	got, err := NewCandidateRepository(db).RiderCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, anna.ID, a.ID)
	assert.Equal(t, model.KindRider, a.Kind)
	assert.Equal(t, "Anna Andersson", a.Name)
	assert.Equal(t, "anna andersson", a.Key)
	assert.Equal(t, "anna", a.GivenName)
	assert.Equal(t, "andersson", a.FamilyName)
	assert.Equal(t, "CK Fix", a.ClubName)
	assert.Equal(t, int64(3), a.ResultCount)
	assert.Equal(t, 2, a.Completeness)
	assert.Equal(t, []string{"10012345678", "SWE2500123"}, a.ExternalIDs)

	e := got[1]
	assert.Equal(t, erik.ID, e.ID)
	assert.Zero(t, e.ResultCount)
	assert.Empty(t, e.ExternalIDs)
	assert.Empty(t, e.ClubName)
}

func TestCandidateRepository_ClubCandidates(t *testing.T) {
	db := dbtest.Open(t)

	fix := &model.Club{Name: "CK Fix", City: dbtest.Ptr("Stockholm")}
	other := &model.Club{Name: "Fix Cykelklubb"}
	require.NoError(t, db.Create(fix).Error)
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Create(&model.Result{EventID: 1, RiderID: 9, ClubID: &fix.ID}).Error)
	require.NoError(t, db.Create(&model.Result{EventID: 2, RiderID: 9, ClubID: &fix.ID}).Error)
	require.NoError(t, db.Create(&model.Result{EventID: 3, RiderID: 9}).Error)

	got, err := NewCandidateRepository(db).ClubCandidates(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fix", got[0].Key)
	assert.Equal(t, "fix", got[1].Key)
	assert.Equal(t, int64(2), got[0].ResultCount)
	assert.Equal(t, 1, got[0].Completeness)
	assert.Zero(t, got[1].ResultCount)
}

func TestMergeRepository_MoveResults(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	keep := seedRider(t, db, &model.Rider{FirstName: "Anna", LastName: "Andersson"})
	remove := seedRider(t, db, &model.Rider{FirstName: "Anna", LastName: "Anderson"})
	seedResults(t, db, keep.ID, 1, 2)
	seedResults(t, db, remove.ID, 2, 3, 4)

	var moved Moved
	err := NewMergeRepository(db).RunInTx(ctx, func(repo MergeRepository) error {
		var err error
		moved, err = repo.MoveResults(ctx, keep.ID, remove.ID)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, Moved{Moved: 2, Dropped: 1}, moved)
	assert.Equal(t, int64(4), countWhere(t, db, &model.Result{}, "rider_id = ?", keep.ID))
	assert.Zero(t, countWhere(t, db, &model.Result{}, "rider_id = ?", remove.ID))
	assert.Equal(t, int64(1), countWhere(t, db, &model.Result{}, "rider_id = ? AND event_id = ?", keep.ID, 2))
}

func TestMergeRepository_MoveMembershipsAndRegistrations(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	keep := seedRider(t, db, &model.Rider{FirstName: "A", LastName: "B"})
	remove := seedRider(t, db, &model.Rider{FirstName: "A", LastName: "B"})

	require.NoError(t, db.Create(&model.ClubSeasonMembership{RiderID: keep.ID, ClubID: 1, Season: 2024}).Error)
	require.NoError(t, db.Create(&model.ClubSeasonMembership{RiderID: remove.ID, ClubID: 2, Season: 2024}).Error)
	require.NoError(t, db.Create(&model.ClubSeasonMembership{RiderID: remove.ID, ClubID: 2, Season: 2025}).Error)
	require.NoError(t, db.Create(&model.EventRegistration{EventID: 7, RiderID: keep.ID}).Error)
	require.NoError(t, db.Create(&model.EventRegistration{EventID: 7, RiderID: remove.ID}).Error)

	var memberships, registrations Moved
	err := NewMergeRepository(db).RunInTx(ctx, func(repo MergeRepository) error {
		var err error
		if memberships, err = repo.MoveMemberships(ctx, keep.ID, remove.ID); err != nil {
			return err
		}
		registrations, err = repo.MoveRegistrations(ctx, keep.ID, remove.ID)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, Moved{Moved: 1, Dropped: 1}, memberships)
	assert.Equal(t, Moved{Moved: 0, Dropped: 1}, registrations)

	var m model.ClubSeasonMembership
	require.NoError(t, db.Where("rider_id = ? AND season = ?", keep.ID, 2024).First(&m).Error)
	assert.Equal(t, uint64(1), m.ClubID)
}

func TestMergeRepository_DuplicateKeyIsTranslated(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Create(&model.ClubSeasonMembership{RiderID: 1, ClubID: 1, Season: 2024}).Error)

	err := db.Create(&model.ClubSeasonMembership{RiderID: 1, ClubID: 2, Season: 2024}).Error

	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestMergeRepository_RunInTxRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	r := seedRider(t, db, &model.Rider{FirstName: "Erik", LastName: "Svensson"})
	repo := NewMergeRepository(db)

	err := repo.RunInTx(ctx, func(tx MergeRepository) error {
		if err := tx.UpdateRider(ctx, r.ID, map[string]interface{}{"birth_year": 1985}); err != nil {
			return err
		}
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")

	err = repo.RunInTx(ctx, func(tx MergeRepository) error {
		require.NoError(t, tx.DeleteRider(ctx, r.ID))
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")

	got, err := repo.GetRider(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BirthYear)
}

func TestMergeRepository_DeleteMissing(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewMergeRepository(db)

	assert.ErrorIs(t, repo.DeleteRider(context.Background(), 404), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteClub(context.Background(), 404), gorm.ErrRecordNotFound)
	_, err := repo.GetRider(context.Background(), 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMergeRepository_RepointClub(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	keep := &model.Club{Name: "CK Fix"}
	remove := &model.Club{Name: "Fix Cykelklubb"}
	require.NoError(t, db.Create(keep).Error)
	require.NoError(t, db.Create(remove).Error)
	r := seedRider(t, db, &model.Rider{FirstName: "A", LastName: "B", ClubID: &remove.ID})
	require.NoError(t, db.Create(&model.Result{EventID: 1, RiderID: r.ID, ClubID: &remove.ID}).Error)
	require.NoError(t, db.Create(&model.ClubSeasonMembership{RiderID: r.ID, ClubID: remove.ID, Season: 2024}).Error)

	var got ClubRepoint
	err := NewMergeRepository(db).RunInTx(ctx, func(repo MergeRepository) error {
		var err error
		if got, err = repo.RepointClub(ctx, keep.ID, remove.ID); err != nil {
			return err
		}
		return repo.DeleteClub(ctx, remove.ID)
	})
	require.NoError(t, err)

	assert.Equal(t, ClubRepoint{Riders: 1, Results: 1, Memberships: 1}, got)
	assert.Zero(t, countWhere(t, db, &model.Club{}, "id = ?", remove.ID))
	assert.Equal(t, int64(1), countWhere(t, db, &model.Rider{}, "club_id = ?", keep.ID))
}

func TestMergeLogRepository_List(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	merges := NewMergeRepository(db)
	for i := 0; i < 3; i++ {
		require.NoError(t, merges.CreateLog(ctx, &model.MergeLog{
			MergeUUID: string(rune('a' + i)), Kind: model.KindRider, KeepID: 1, RemoveID: uint64(10 + i),
			OperatorID: "op", FieldsBackfilled: datatypes.JSON(`[]`),
		}))
	}
	require.NoError(t, merges.CreateLog(ctx, &model.MergeLog{MergeUUID: "z", Kind: model.KindClub, KeepID: 5, RemoveID: 6, OperatorID: "op"}))

	logs := NewMergeLogRepository(db)
	page, total, err := logs.List(ctx, MergeLogFilter{Kind: model.KindRider}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(12), page[0].RemoveID)

	page, total, err = logs.List(ctx, MergeLogFilter{}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 1)

	page, total, err = logs.List(ctx, MergeLogFilter{KeepID: 5}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, "z", page[0].MergeUUID)

	got, err := logs.GetByUUID(ctx, "z")
	require.NoError(t, err)
	assert.Equal(t, model.KindClub, got.Kind)

	_, err = logs.GetByUUID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
