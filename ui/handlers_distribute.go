package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"sheetsort/app"
	"sheetsort/domain/core"
	"sheetsort/domain/workbook"
	apperrors "sheetsort/internal/errors"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": s.deps.Profiles.List()})
}

func (s *Server) handleDistribute(c *gin.Context) {
	result, err := s.deps.Distribution.Distribute(c.Request.Context(), s.currentSession(c), c.Query("profile"))
	if err != nil {
		respondError(c, err)
		return
	}

	if isHTMX(c) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, renderMarkdown(result.Report.Markdown()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    result.Message(),
		"new_sheets": result.NewSheets(),
		"sheets":     result.Sheets,
		"report":     result.Report,
		"backup_id":  result.BackupID,
	})
}

func (s *Server) activeWorkbook(c *gin.Context) (core.ID, bool) {
	sc := s.currentSession(c)
	if !sc.HasWorkbook() {
		respondError(c, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "Keine Datei geladen", Cause: core.ErrNoActiveFile})
		return "", false
	}
	return sc.WorkbookID, true
}

func (s *Server) handleListBackups(c *gin.Context) {
	id, ok := s.activeWorkbook(c)
	if !ok {
		return
	}
	backups, err := s.deps.Backups.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"backups": backups,
		"count":   len(backups),
	})
}

func (s *Server) handleCreateBackup(c *gin.Context) {
	id, ok := s.activeWorkbook(c)
	if !ok {
		return
	}
	backup, err := s.deps.Backups.Create(c.Request.Context(), id, workbook.BackupManual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   app.BackupCreatedMessage(backup),
		"backup_id": backup.ID,
	})
}

func (s *Server) handleRestoreBackup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	backup, err := s.deps.Backups.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	// the restored workbook becomes the active one
	sc, err := s.deps.Workbooks.Open(c.Request.Context(), backup.WorkbookID)
	if err != nil {
		respondError(c, err)
		return
	}
	s.saveSession(c, sc)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Backup vom %s wiederhergestellt", backup.CreatedAt.Format("02.01.2006 15:04")),
		"file_id": backup.WorkbookID,
	})
}

func (s *Server) handleExport(c *gin.Context) {
	sc := s.currentSession(c)
	id, ok := s.activeWorkbook(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Backups.Export(c.Request.Context(), id, &buf); err != nil {
		respondError(c, err)
		return
	}

	name := strings.TrimSuffix(sc.Filename, filepath.Ext(sc.Filename)) + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
