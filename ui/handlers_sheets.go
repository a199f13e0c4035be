package ui

import (
	"net/http"

	"sheetsort/domain/table"
	apperrors "sheetsort/internal/errors"

	"github.com/gin-gonic/gin"
)

type cellEditRequest struct {
	Row    *int   `json:"row" binding:"required"`
	Column string `json:"column" binding:"required"`
	Value  string `json:"value"`
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

// sheetView is the JSON shape of a sheet for the viewer
type sheetView struct {
	Sheet   string         `json:"sheet"`
	Columns []string       `json:"columns"`
	Data    []table.Row    `json:"data"`
	Colors  map[int]string `json:"colors"`
	Total   int            `json:"total_rows"`
}

func newSheetView(t *table.Table) sheetView {
	view := sheetView{
		Sheet:   t.Name,
		Columns: t.Columns,
		Data:    t.Rows,
		Colors:  make(map[int]string),
		Total:   t.Len(),
	}
	if view.Data == nil {
		view.Data = []table.Row{}
	}
	for i := range t.Rows {
		if color := t.Color(i); color != "" {
			view.Colors[i] = color
		}
	}
	return view
}

func (s *Server) handleListSheets(c *gin.Context) {
	sc := s.currentSession(c)
	names, err := s.deps.Sheets.Sheets(c.Request.Context(), sc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filename":      sc.Filename,
		"sheets":        names,
		"current_sheet": sc.ActiveSheet,
	})
}

func (s *Server) handleGetSheet(c *gin.Context) {
	sc := s.currentSession(c)
	t, err := s.deps.Sheets.Sheet(c.Request.Context(), sc, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	sc.ActiveSheet = t.Name
	s.saveSession(c, sc)
	c.JSON(http.StatusOK, newSheetView(t))
}

func (s *Server) handleProfileSheet(c *gin.Context) {
	profile, err := s.deps.Sheets.Profile(c.Request.Context(), s.currentSession(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleEditCell(c *gin.Context) {
	var req cellEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "Ungültige Anfrage", Cause: err})
		return
	}

	t, err := s.deps.Sheets.EditCell(c.Request.Context(), s.currentSession(c), c.Param("name"), *req.Row, req.Column, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"row":     *req.Row,
		"values":  t.Rows[*req.Row],
	})
}

func (s *Server) handleAddRow(c *gin.Context) {
	index, err := s.deps.Sheets.AddRow(c.Request.Context(), s.currentSession(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"row":     index,
	})
}

func (s *Server) handleDeleteRow(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	if err := s.deps.Sheets.DeleteRow(c.Request.Context(), s.currentSession(c), c.Param("name"), index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSetRowColor(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperrors.AppError{Code: apperrors.CodeInvalidInput, Message: "Ungültige Anfrage", Cause: err})
		return
	}

	if err := s.deps.Sheets.SetRowColor(c.Request.Context(), s.currentSession(c), c.Param("name"), index, req.Color); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleClearRowColor(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	if err := s.deps.Sheets.ClearRowColor(c.Request.Context(), s.currentSession(c), c.Param("name"), index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
