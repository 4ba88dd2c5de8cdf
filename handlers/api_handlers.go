package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"discipline-tracker-go/models"
	"discipline-tracker-go/roster"
	"discipline-tracker-go/session"
	"discipline-tracker-go/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store    *store.Store
	Sessions *session.Manager
	Now      func() time.Time
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(st *store.Store, sessions *session.Manager) *APIHandler {
	return &APIHandler{
		Store:    st,
		Sessions: sessions,
		Now:      time.Now,
	}
}

// RegisterRoutes mounts every route under /api
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/ping", h.Ping)

	// Session routes
	api.GET("/session", h.GetSession)
	api.POST("/session/login", h.Login)
	api.POST("/session/logout", h.Logout)

	authed := api.Group("", h.RequireSession)
	{
		// Master roster
		authed.GET("/students", h.GetStudents)
		authed.PUT("/students", h.ImportStudents)
		authed.POST("/students/import", h.ImportStudentsFromExcel)
		authed.DELETE("/students", h.ClearStudents)

		// Discipline
		authed.GET("/discipline-records", h.GetDisciplineRecords)
		authed.POST("/discipline-records", h.AddDisciplineRecord)
		authed.GET("/discipline-records/export", h.ExportDisciplineRecords)

		// Violation watchlist
		authed.GET("/watchlist", h.GetWatchlist)
		authed.GET("/restrictions", h.GetRestrictions)
		authed.PUT("/restrictions/:id", h.SaveRestriction)
		authed.DELETE("/restrictions/:id", h.DeleteRestriction)

		// Fitness
		authed.GET("/fitness-records", h.GetFitnessRecords)
		authed.PUT("/fitness-records", h.UpdateFitnessRecords)

		// Duty roster
		authed.GET("/duty-roster", h.GetDutyRoster)
		authed.PUT("/duty-roster", h.RequireAdmin, h.UpdateDutyRoster)

		// Backup and restore
		authed.GET("/backup", h.GetBackup)
		authed.POST("/restore", h.Restore)
	}
}

// --- Middleware ---

// RequireSession rejects requests while nobody is logged in
func (h *APIHandler) RequireSession(c *gin.Context) {
	if !h.Sessions.Current().LoggedIn() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}
	c.Next()
}

// RequireAdmin rejects requests from non-admin sessions
func (h *APIHandler) RequireAdmin(c *gin.Context) {
	if !h.Sessions.Current().IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	c.Next()
}

// writeError maps store errors to status codes. Remote write failures are
// reported as 502 so the user knows the change did not reach the cloud.
func writeError(c *gin.Context, action string, err error) {
	log.Printf("Error in %s handler: %v", action, err)
	switch {
	case errors.Is(err, store.ErrNoSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
	case errors.Is(err, store.ErrRemoteWrite):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Cloud sync failed: " + err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// --- Session Handlers ---

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	IsAdmin    bool   `json:"isAdmin"`
}

// GetSession handles GET /api/session
func (h *APIHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.Sessions.Current())
}

// Login handles POST /api/session/login
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	sess, err := h.Sessions.Login(req.Identifier, req.IsAdmin)
	if err != nil {
		if errors.Is(err, session.ErrEmptyIdentifier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeError(c, "log in", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logout handles POST /api/session/logout
func (h *APIHandler) Logout(c *gin.Context) {
	if err := h.Sessions.Logout(); err != nil {
		writeError(c, "log out", err)
		return
	}
	c.JSON(http.StatusOK, h.Sessions.Current())
}

// --- Student Handlers ---

// GetStudents handles GET /api/students
func (h *APIHandler) GetStudents(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Students())
}

// ImportStudents handles PUT /api/students, replacing the whole roster
func (h *APIHandler) ImportStudents(c *gin.Context) {
	var students []models.Student
	if err := c.ShouldBindJSON(&students); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.Store.ImportStudents(c.Request.Context(), students); err != nil {
		writeError(c, "import students", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"importedCount": len(students)})
}

// ImportStudentsFromExcel handles POST /api/students/import
func (h *APIHandler) ImportStudentsFromExcel(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Printf("Error getting form file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Printf("Received roster upload: %s", header.Filename)

	students, err := roster.ParseStudents(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read roster: " + err.Error()})
		return
	}
	if err := h.Store.ImportStudents(c.Request.Context(), students); err != nil {
		writeError(c, "import students", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": len(students),
	})
}

// ClearStudents handles DELETE /api/students?confirm=true
func (h *APIHandler) ClearStudents(c *gin.Context) {
	if err := h.Store.ClearStudents(c.Query("confirm") == "true"); err != nil {
		if errors.Is(err, store.ErrConfirmationRequired) {
			c.JSON(http.StatusPreconditionRequired, gin.H{"error": "Clear current roster? Repeat with confirm=true"})
			return
		}
		writeError(c, "clear students", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Discipline Handlers ---

// GetDisciplineRecords handles GET /api/discipline-records
func (h *APIHandler) GetDisciplineRecords(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.DisciplineRecords())
}

// AddDisciplineRecord handles POST /api/discipline-records
func (h *APIHandler) AddDisciplineRecord(c *gin.Context) {
	var in models.NewDisciplineRecord
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rec, err := h.Store.AddDisciplineRecord(c.Request.Context(), in)
	if err != nil {
		writeError(c, "add discipline record", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ExportDisciplineRecords handles GET /api/discipline-records/export
func (h *APIHandler) ExportDisciplineRecords(c *gin.Context) {
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="discipline-records.xlsx"`)
	if err := roster.WriteDisciplineReport(c.Writer, h.Store.DisciplineRecords()); err != nil {
		log.Printf("Error exporting discipline records: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// --- Watchlist Handlers ---

// GetWatchlist handles GET /api/watchlist
func (h *APIHandler) GetWatchlist(c *gin.Context) {
	now := h.Now()
	c.JSON(http.StatusOK, gin.H{
		"students":           h.Store.Watchlist(now),
		"activeRestrictions": h.Store.ActiveRestrictions(now),
	})
}

// GetRestrictions handles GET /api/restrictions
func (h *APIHandler) GetRestrictions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Restrictions())
}

// SaveRestriction handles PUT /api/restrictions/:id. The path ID wins over
// the body's.
func (h *APIHandler) SaveRestriction(c *gin.Context) {
	var r models.Restriction
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	r.ID = c.Param("id")
	if r.AssignedBy == "" {
		r.AssignedBy = h.Sessions.Current().User
	}

	if err := h.Store.SaveRestriction(c.Request.Context(), r); err != nil {
		writeError(c, "save restriction", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// DeleteRestriction handles DELETE /api/restrictions/:id
func (h *APIHandler) DeleteRestriction(c *gin.Context) {
	if err := h.Store.DeleteRestriction(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "delete restriction", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Fitness Handlers ---

// GetFitnessRecords handles GET /api/fitness-records
func (h *APIHandler) GetFitnessRecords(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.FitnessRecords())
}

// UpdateFitnessRecords handles PUT /api/fitness-records
func (h *APIHandler) UpdateFitnessRecords(c *gin.Context) {
	var records []models.FitnessRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	h.Store.UpdateFitnessRecords(records)
	c.JSON(http.StatusOK, h.Store.FitnessRecords())
}

// --- Duty Roster Handlers ---

// GetDutyRoster handles GET /api/duty-roster
func (h *APIHandler) GetDutyRoster(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.DutyRoster())
}

// UpdateDutyRoster handles PUT /api/duty-roster
func (h *APIHandler) UpdateDutyRoster(c *gin.Context) {
	var dutyRoster []models.DutyAssignment
	if err := c.ShouldBindJSON(&dutyRoster); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.Store.UpdateDutyRoster(c.Request.Context(), dutyRoster); err != nil {
		writeError(c, "update duty roster", err)
		return
	}
	c.JSON(http.StatusOK, h.Store.DutyRoster())
}

// --- Backup Handlers ---

// GetBackup handles GET /api/backup
func (h *APIHandler) GetBackup(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="tracker-backup.json"`)
	c.JSON(http.StatusOK, h.Store.Backup())
}

// Restore handles POST /api/restore. Collections missing from the body are
// left as they are.
func (h *APIHandler) Restore(c *gin.Context) {
	var backup models.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	h.Store.Restore(backup)
	c.JSON(http.StatusOK, gin.H{"message": "Restore successful"})
}

// --- Ping Handler ---

// Ping reports liveness and the operating mode
func (h *APIHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!", "mode": h.Store.Mode()})
}
