package ui

import (
	"log"
	"net/http"
	"strconv"

	apperrors "sheetsort/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// respondError writes err as {"error": message, "code": code}. Only the
// user-facing message of an AppError is exposed.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatus(code)

	message := "Interner Fehler"
	if appErr, ok := apperrors.As(err); ok {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// renderMarkdown converts a report to an HTML fragment
func renderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, r))
}

func rowIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondError(c, apperrors.InvalidInput("Ungültiger Zeilenindex"))
		return 0, false
	}
	return index, true
}
