package ui

import (
	"errors"
	"net/http"

	"sheetsort/app"
	"sheetsort/domain/core"
	apperrors "sheetsort/internal/errors"

	"github.com/gin-gonic/gin"
)

// multipartOverhead allows for the form encoding around the file itself
const multipartOverhead = 1 << 20

func (s *Server) handleUpload(c *gin.Context) {
	if s.deps.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.deps.MaxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperrors.FileTooLarge(s.deps.MaxUploadBytes))
			return
		}
		respondError(c, apperrors.InvalidInput("Keine Datei ausgewählt"))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, apperrors.Wrap(err, "Fehler beim Verarbeiten der Datei"))
		return
	}
	defer file.Close()

	result, err := s.deps.Uploads.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	sc := result.Session()
	s.saveSession(c, sc)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       result.Message(),
		"file_id":       result.Workbook.ID,
		"filename":      result.Workbook.Filename,
		"sheets":        result.Sheets,
		"current_sheet": sc.ActiveSheet,
		"reused":        result.Reused,
	})
}

func (s *Server) handleListFiles(c *gin.Context) {
	files, err := s.deps.Workbooks.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

func (s *Server) handleOpenFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sc, err := s.deps.Workbooks.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	s.saveSession(c, sc)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"file_id":       sc.WorkbookID,
		"filename":      sc.Filename,
		"current_sheet": sc.ActiveSheet,
	})
}

func (s *Server) handleDeleteFile(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.deps.Workbooks.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": app.DeletedMessage,
	})
}

func pathID(c *gin.Context) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "Ungültige ID", Cause: err})
		return "", false
	}
	return id, true
}
