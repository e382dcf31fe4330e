package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/export"
	"github.com/ppiankov/aontas/internal/llm"
	"github.com/ppiankov/aontas/internal/model"
)

// ExportBody is the JSON body accepted by the export endpoints
type ExportBody struct {
	Data      *model.GenerationResponse `json:"data"`
	IncludeLD *bool                     `json:"includeLD"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"ts": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body model.GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input"})
		return
	}

	req, err := s.validator.Validate(body)
	if err != nil {
		s.respondError(c, err)
		return
	}

	gen, err := s.generator.Generate(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header(model.GenVersionHeader, string(gen.Path))
	c.JSON(http.StatusOK, gen.Response)
}

func (s *Server) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	var upstreamErr *llm.UpstreamError
	if errors.As(err, &upstreamErr) {
		c.JSON(upstreamErr.StatusCode, gin.H{
			"error":  upstreamErr.Error(),
			"detail": upstreamErr.Detail,
		})
		return
	}

	s.logger.Error("generation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

func (s *Server) exportMarkdown(c *gin.Context) {
	body, ok := bindExport(c)
	if !ok {
		return
	}
	md := export.Markdown(*body.Data, includeLD(body))
	attachment(c, export.MarkdownFilename, export.MarkdownContentType, []byte(md))
}

func (s *Server) exportHTML(c *gin.Context) {
	body, ok := bindExport(c)
	if !ok {
		return
	}
	page, err := export.HTML(*body.Data, includeLD(body))
	if err != nil {
		s.respondError(c, err)
		return
	}
	attachment(c, export.HTMLFilename, export.HTMLContentType, page)
}

func bindExport(c *gin.Context) (ExportBody, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body ExportBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing data"})
		return body, false
	}
	return body, true
}

func includeLD(body ExportBody) bool {
	return body.IncludeLD == nil || *body.IncludeLD
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
