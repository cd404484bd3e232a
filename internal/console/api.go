package console

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/userdir/userdir/internal/activity"
	"github.com/userdir/userdir/internal/users"
)

// FieldChangeRequest sets one or more draft fields by path
type FieldChangeRequest struct {
	Path   string            `json:"path"`
	Value  string            `json:"value"`
	Fields map[string]string `json:"fields"`
}

func (cs *ConsoleService) listUsers(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if _, err := cs.UserService.Refresh(c.Request.Context()); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
	}

	records := cs.UserService.Records()
	c.JSON(http.StatusOK, gin.H{
		"users": records,
		"count": len(records),
	})
}

func (cs *ConsoleService) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := cs.UserService.Record(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (cs *ConsoleService) createUser(c *gin.Context) {
	var draft users.Record
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	created, err := cs.UserService.CreateEntry(c.Request.Context(), draft)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (cs *ConsoleService) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var draft users.Record
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := cs.UserService.UpdateEntry(c.Request.Context(), id, draft)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (cs *ConsoleService) removeUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := cs.UserService.Remove(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "id": id})
}

func (cs *ConsoleService) getForm(c *gin.Context) {
	c.JSON(http.StatusOK, cs.UserService.Form())
}

func (cs *ConsoleService) changeForm(c *gin.Context) {
	var req FieldChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	values := make(map[string]string, len(req.Fields)+1)
	for path, value := range req.Fields {
		values[path] = value
	}
	if req.Path != "" {
		values[req.Path] = req.Value
	}
	if len(values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path or fields is required"})
		return
	}

	if err := cs.UserService.ChangeFields(values); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cs.UserService.Form())
}

func (cs *ConsoleService) resetForm(c *gin.Context) {
	cs.UserService.CancelEdit()
	c.JSON(http.StatusOK, cs.UserService.Form())
}

func (cs *ConsoleService) editForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := cs.UserService.StartEdit(id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cs.UserService.Form())
}

func (cs *ConsoleService) submitDraft(c *gin.Context) {
	editing := cs.UserService.Form().Editing

	saved, err := cs.UserService.Submit(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	c.JSON(status, saved)
}

func (cs *ConsoleService) listActivity(c *gin.Context) {
	if cs.Activity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity log is not configured"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	var (
		ctx  = c.Request.Context()
		logs []*activity.OperationLog
		err  error
	)
	if c.Query("failed") == "true" {
		logs, err = cs.Activity.RecentFailures(ctx, limit)
	} else {
		logs, err = cs.Activity.Recent(ctx, limit)
	}
	if err != nil {
		cs.Logger.Error("Failed to list activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operations": logs,
		"count":      len(logs),
	})
}
