package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"HubAdmin/internal/config"
	"HubAdmin/internal/dbtest"
	"HubAdmin/internal/metrics"
	"HubAdmin/internal/model"
	"HubAdmin/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := gin.New()
	RegisterRoutes(r, db, &config.Config{Dedupe: config.DefaultDedupe()}, metrics.New(), logger)
	return r, db
}

func do(r http.Handler, method, path, body, operator string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if operator != "" {
		req.Header.Set(HeaderOperatorID, operator)
		req.Header.Set(HeaderOperatorRole, "admin")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedAnna(t *testing.T, db *gorm.DB) {
	t.Helper()
	a := &model.Rider{ID: 1, FirstName: "Anna", LastName: "Andersson", BirthYear: dbtest.Ptr(1990)}
	b := &model.Rider{ID: 2, FirstName: "Anna", LastName: "Anderson", BirthYear: dbtest.Ptr(1990), ClubID: dbtest.Ptr(uint64(42))}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)
	for e := uint64(1); e <= 5; e++ {
		require.NoError(t, db.Create(&model.Result{EventID: e, RiderID: a.ID, ClassName: fmt.Sprintf("C%d", e)}).Error)
	}
	require.NoError(t, db.Create(&model.Result{EventID: 6, RiderID: b.ID, ClassName: "C6"}).Error)
}

func TestPreviewRiders(t *testing.T) {
	r, db := newServer(t)
	seedAnna(t, db)

	rec := do(r, http.MethodGet, "/api/duplicates/riders", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report service.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Groups, 1)
	assert.Equal(t, uint64(1), report.Groups[0].Keep.ID)
	require.Len(t, report.Groups[0].Safe, 1)
	assert.Equal(t, uint64(2), report.Groups[0].Safe[0].ID)
}

func TestPreviewUnknownKind(t *testing.T) {
	r, _ := newServer(t)

	rec := do(r, http.MethodGet, "/api/duplicates/events", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown entity kind")
}

func TestMergeRiders(t *testing.T) {
	r, db := newServer(t)
	seedAnna(t, db)
	body := `{"keep_id": 1, "remove_id": 2}`

	rec := do(r, http.MethodPost, "/api/riders/merge", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "operator is required")

	rec = do(r, http.MethodPost, "/api/riders/merge", body, "admin-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out service.MergeOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(1), out.ResultsMoved)
	assert.Equal(t, []string{"club_id"}, out.FieldsBackfilled)

	rec = do(r, http.MethodPost, "/api/riders/merge", body, "admin-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "rider 2 not found")
}

func TestMergeRiders_BadRequests(t *testing.T) {
	r, _ := newServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"non numeric id", `{"keep_id": "abc", "remove_id": 2}`},
		{"same id", `{"keep_id": 2, "remove_id": 2}`},
		{"missing remove", `{"keep_id": 2}`},
		{"not json", `keep=1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/riders/merge", tt.body, "admin-1")
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestMergeRiders_ConstraintIsConflict(t *testing.T) {
	r, db := newServer(t)
	seedAnna(t, db)
	require.NoError(t, db.Model(&model.Result{}).Where("event_id = ?", 6).Update("class_name", "X").Error)
	require.NoError(t, db.Create(&model.Result{EventID: 7, RiderID: 1, ClassName: "X"}).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX uq_results_rider_class ON results (rider_id, class_name)`).Error)

	rec := do(r, http.MethodPost, "/api/riders/merge", `{"keep_id": 1, "remove_id": 2}`, "admin-1")

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "constraint violation")
}

func TestApplyClubsAndHistory(t *testing.T) {
	r, db := newServer(t)
	require.NoError(t, db.Create(&model.Club{ID: 1, Name: "CK Fix", City: dbtest.Ptr("Stockholm")}).Error)
	require.NoError(t, db.Create(&model.Club{ID: 2, Name: "Fix Cykelklubb"}).Error)

	rec := do(r, http.MethodPost, "/api/duplicates/clubs/apply?offset=0&limit=10", "", "admin-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var batch service.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, 1, batch.Merged)
	assert.True(t, batch.Done)
	require.Len(t, batch.Succeeded, 1)
	assert.Equal(t, uint64(1), batch.Succeeded[0].KeepID)

	rec = do(r, http.MethodPost, "/api/duplicates/clubs/apply?offset=x", "", "admin-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/merges?kind=clubs", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history service.MergeHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, int64(1), history.Total)
	require.Len(t, history.Items, 1)
	assert.Equal(t, "admin-1", history.Items[0].OperatorID)
	assert.Equal(t, uint64(2), history.Items[0].RemoveID)

	rec = do(r, http.MethodGet, "/api/merges/"+history.Items[0].MergeUUID, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var one service.MergeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, uint64(1), one.KeepID)
	assert.Contains(t, string(one.Removed), "Fix Cykelklubb")

	rec = do(r, http.MethodGet, "/api/merges/unknown-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodGet, "/api/merges?keep_id=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, int64(1), history.Total)

	rec = do(r, http.MethodGet, "/api/merges?keep_id=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hubadmin_dedupe_merges_total{kind="club",outcome="merged"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&service.ValidationError{Msg: "x"}))
	assert.Equal(t, http.StatusNotFound, statusFor(&service.NotFoundError{Kind: model.KindClub, ID: 1}))
	assert.Equal(t, http.StatusConflict, statusFor(&service.ConstraintError{Err: gorm.ErrDuplicatedKey}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(gorm.ErrInvalidDB))
}
