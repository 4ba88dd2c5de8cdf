package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"discipline-tracker-go/models"
	"discipline-tracker-go/session"
	"discipline-tracker-go/store"
)

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (c *memCache) Get(key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

var now = time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cache := &memCache{values: map[string]string{}}
	sessions, err := session.NewManager(cache, false)
	require.NoError(t, err)
	st, err := store.New(cache, sessions, nil, store.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	h := NewAPIHandler(st, sessions)
	h.Now = func() time.Time { return now }
	router := gin.New()
	h.RegisterRoutes(router)
	return router, st
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router http.Handler, admin bool) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/session/login", gin.H{"identifier": "teacher@x.com", "isAdmin": admin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPingReportsMode(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pong!","mode":"local"}`, w.Body.String())
}

func TestRoutesRequireLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/session/login", gin.H{"identifier": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	login(t, router, false)
	w = doJSON(t, router, http.MethodGet, "/api/students", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/session/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddDisciplineRecordStampsServerSide(t *testing.T) {
	router, st := newTestRouter(t)
	login(t, router, false)

	w := doJSON(t, router, http.MethodPost, "/api/discipline-records", gin.H{
		"studentName":    "X",
		"grade":          "3A",
		"infractionType": "Late Comer",
		"notes":          "",
		"date":           "1999-01-01",
		"enteredBy":      "someone-else",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.DisciplineRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "2026-10-15", rec.Date)
	assert.Equal(t, "teacher@x.com", rec.EnteredBy)
	assert.Equal(t, st.DisciplineRecords(), []models.DisciplineRecord{rec})

	w = doJSON(t, router, http.MethodPost, "/api/discipline-records", gin.H{"grade": "3A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestrictionRoutes(t *testing.T) {
	router, st := newTestRouter(t)
	login(t, router, false)

	w := doJSON(t, router, http.MethodPut, "/api/restrictions/r1", models.Restriction{
		ID: "ignored", StudentName: "X", StartDate: "2026-10-10", EndDate: "2026-10-20", Reason: "lunch",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, st.Restrictions(), 1)
	assert.Equal(t, "r1", st.Restrictions()[0].ID)
	assert.Equal(t, "teacher@x.com", st.Restrictions()[0].AssignedBy)

	w = doJSON(t, router, http.MethodGet, "/api/watchlist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var watch struct {
		ActiveRestrictions []models.Restriction `json:"activeRestrictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &watch))
	assert.Len(t, watch.ActiveRestrictions, 1)

	w = doJSON(t, router, http.MethodDelete, "/api/restrictions/r1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/restrictions/r1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.Restrictions())
}

func TestClearStudentsNeedsConfirmation(t *testing.T) {
	router, st := newTestRouter(t)
	login(t, router, false)

	w := doJSON(t, router, http.MethodDelete, "/api/students", nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Len(t, st.Students(), 2)

	w = doJSON(t, router, http.MethodDelete, "/api/students?confirm=true", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, st.Students())
}

func TestDutyRosterIsAdminOnly(t *testing.T) {
	router, st := newTestRouter(t)
	roster := []models.DutyAssignment{{ID: "d1", Day: models.Monday, Type: models.DutySnack, Location: "Gate", TeacherName: "A"}}

	login(t, router, false)
	w := doJSON(t, router, http.MethodPut, "/api/duty-roster", roster)
	assert.Equal(t, http.StatusForbidden, w.Code)

	login(t, router, true)
	w = doJSON(t, router, http.MethodPut, "/api/duty-roster", roster)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, roster, st.DutyRoster())
}

func TestBackupAndRestore(t *testing.T) {
	router, st := newTestRouter(t)
	login(t, router, true)

	w := doJSON(t, router, http.MethodPost, "/api/restore", gin.H{
		"fitnessRecords": []models.FitnessRecord{{RollNo: 4, Name: "Riya"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, st.FitnessRecords(), 1)
	assert.Len(t, st.Students(), 2)

	w = doJSON(t, router, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var backup models.Backup
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &backup))
	assert.Equal(t, st.Backup(), backup)
}

func TestImportStudentsFromExcel(t *testing.T) {
	router, st := newTestRouter(t)
	login(t, router, false)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Enrollment No", "Name", "Class", "Section"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"SCAK1", "Riya", "5", "C"}))
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "roster.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []models.Student{{ID: "SCAK1", Name: "Riya", Class: "5", Section: "C", EnrollmentNo: "SCAK1"}}, st.Students())
}

func TestExportDisciplineRecords(t *testing.T) {
	router, _ := newTestRouter(t)
	login(t, router, false)

	w := doJSON(t, router, http.MethodGet, "/api/discipline-records/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Discipline")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
