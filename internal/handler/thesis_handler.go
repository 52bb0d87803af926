package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"digithesis/internal/auth"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/pagination"
	"digithesis/internal/repository"
	"digithesis/internal/service"
)

// ThesisHandler handles thesis endpoints.
type ThesisHandler struct {
	svc service.ThesisService
}

// NewThesisHandler creates a new thesis handler.
func NewThesisHandler(svc service.ThesisService) *ThesisHandler {
	return &ThesisHandler{svc: svc}
}

// UploadRequest holds the text fields of a multipart thesis upload.
type UploadRequest struct {
	Title          string `form:"title" validate:"required,notblank,max=255"`
	Abstract       string `form:"abstract" validate:"required,notblank"`
	AuthorName     string `form:"authorName" validate:"required,notblank,max=255"`
	Department     string `form:"department" validate:"required,notblank,max=255"`
	SubmissionYear string `form:"submissionYear" validate:"required,len=4,number"`
	Keywords       string `form:"keywords"`
	IsPublic       string `form:"isPublic"`
}

// Upload godoc
// @Summary Upload a thesis PDF
// @Tags theses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Thesis PDF"
// @Param title formData string true "Title"
// @Param abstract formData string true "Abstract"
// @Param authorName formData string true "Author name"
// @Param department formData string true "Department"
// @Param submissionYear formData string true "Four digit year"
// @Param keywords formData string false "Comma-separated keywords"
// @Param isPublic formData bool false "Visible to the public once approved (default true)"
// @Success 201 {object} model.Thesis
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /theses/upload [post]
func (h *ThesisHandler) Upload(c echo.Context) error {
	var req UploadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	year, err := strconv.Atoi(req.SubmissionYear)
	if err != nil {
		return fail(c, apperrors.NewValidationError("submissionYear", "must be a four digit year"))
	}

	isPublic := true
	if v := strings.TrimSpace(req.IsPublic); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fail(c, apperrors.NewValidationError("isPublic", "must be true or false"))
		}
		isPublic = parsed
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, apperrors.NewValidationError("file", "a PDF file is required"))
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, fmt.Errorf("open upload: %w", err))
	}
	defer src.Close()

	thesis, err := h.svc.Upload(c.Request().Context(), auth.RequesterFrom(c), service.UploadInput{
		Title:          req.Title,
		Abstract:       req.Abstract,
		AuthorName:     req.AuthorName,
		Department:     req.Department,
		SubmissionYear: year,
		Keywords:       splitKeywords(req.Keywords),
		IsPublic:       isPublic,
		FileName:       fh.Filename,
		FileSize:       fh.Size,
		ContentType:    fh.Header.Get(echo.HeaderContentType),
		File:           src,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, thesis)
}

// ListPublic godoc
// @Summary List approved public theses
// @Tags theses
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} pagination.Response
// @Router /theses/public [get]
func (h *ThesisHandler) ListPublic(c echo.Context) error {
	page := pagination.FromRequest(c)
	theses, total, err := h.svc.ListPublic(c.Request().Context(), page)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(theses, page, total))
}

// ListOwn godoc
// @Summary List the caller's theses
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Router /theses [get]
func (h *ThesisHandler) ListOwn(c echo.Context) error {
	theses, err := h.svc.ListOwn(c.Request().Context(), auth.RequesterFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, theses)
}

// ListPending godoc
// @Summary List theses awaiting review
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /theses/pending [get]
func (h *ThesisHandler) ListPending(c echo.Context) error {
	theses, err := h.svc.ListPending(c.Request().Context(), auth.RequesterFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, theses)
}

// Search godoc
// @Summary Search theses
// @Tags theses
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} model.Thesis
// @Failure 400 {object} errors.ErrorResponse
// @Router /theses/search [get]
func (h *ThesisHandler) Search(c echo.Context) error {
	theses, err := h.svc.Search(c.Request().Context(), auth.RequesterFrom(c), c.QueryParam("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, theses)
}

// Get godoc
// @Summary Get a thesis
// @Tags theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} model.Thesis
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/{id} [get]
func (h *ThesisHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	thesis, err := h.svc.Get(c.Request().Context(), auth.RequesterFrom(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, thesis)
}

// Download godoc
// @Summary Stream the thesis PDF
// @Tags theses
// @Produce application/pdf
// @Param id path string true "Thesis ID"
// @Success 200 {file} file
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/{id}/file [get]
func (h *ThesisHandler) Download(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	thesis, rc, err := h.svc.OpenFile(c.Request().Context(), auth.RequesterFrom(c), id)
	if err != nil {
		return fail(c, err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", thesis.FileName))
	return c.Stream(http.StatusOK, "application/pdf", rc)
}

// Approve godoc
// @Summary Approve a thesis
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thesis ID"
// @Success 200 {object} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/approve/{id} [put]
func (h *ThesisHandler) Approve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	thesis, err := h.svc.Approve(c.Request().Context(), auth.RequesterFrom(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, thesis)
}

// Reject godoc
// @Summary Reject a thesis
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thesis ID"
// @Success 200 {object} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/reject/{id} [put]
func (h *ThesisHandler) Reject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	thesis, err := h.svc.Reject(c.Request().Context(), auth.RequesterFrom(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, thesis)
}

// CheckPlagiarism godoc
// @Summary Run the plagiarism check
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thesis ID"
// @Success 200 {object} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/check-plagiarism/{id} [post]
func (h *ThesisHandler) CheckPlagiarism(c echo.Context) error {
	return h.runCheck(c, repository.CheckPlagiarism)
}

// CheckGrammar godoc
// @Summary Run the grammar check
// @Tags review
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thesis ID"
// @Success 200 {object} model.Thesis
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/check-grammar/{id} [post]
func (h *ThesisHandler) CheckGrammar(c echo.Context) error {
	return h.runCheck(c, repository.CheckGrammar)
}

func (h *ThesisHandler) runCheck(c echo.Context, kind repository.CheckKind) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	thesis, err := h.svc.RunCheck(c.Request().Context(), auth.RequesterFrom(c), id, kind)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, thesis)
}

// Delete godoc
// @Summary Delete a thesis
// @Tags theses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Thesis ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /theses/{id} [delete]
func (h *ThesisHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.RequesterFrom(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "thesis deleted",
	})
}

func splitKeywords(raw string) []string {
	out := []string{}
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
