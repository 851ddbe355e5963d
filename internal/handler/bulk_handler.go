package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/issue-tracker-api/internal/dto"
	"github.com/noah-isme/issue-tracker-api/internal/models"
	appErrors "github.com/noah-isme/issue-tracker-api/pkg/errors"
	"github.com/noah-isme/issue-tracker-api/pkg/response"
)

type bulkService interface {
	Execute(ctx context.Context, ops []models.BulkOperation, policy models.BulkPolicy) (*models.BulkResult, error)
}

type importService interface {
	Import(ctx context.Context, r io.Reader, actorID string) (*models.ImportReport, error)
}

// BulkHandler exposes the bulk mutation and CSV import endpoints.
type BulkHandler struct {
	bulk     bulkService
	importer importService
}

// NewBulkHandler constructs the handler.
func NewBulkHandler(bulk bulkService, importer importService) *BulkHandler {
	return &BulkHandler{bulk: bulk, importer: importer}
}

// Execute godoc
// @Summary Apply a batch of issue operations
// @Description Runs create/update/transition/assign/delete operations under
// @Description the chosen policy. Atomic rolls everything back on the first
// @Description failure; best_effort applies each operation independently.
// @Tags Bulk
// @Accept json
// @Produce json
// @Param payload body dto.BulkRequest true "Operations"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /issues/bulk [post]
func (h *BulkHandler) Execute(c *gin.Context) {
	if h.bulk == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "bulk service not configured"))
		return
	}
	var req dto.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk payload"))
		return
	}
	result, err := h.bulk.Execute(c.Request.Context(), req.ToOperations(actorFromContext(c)), models.BulkPolicy(req.Policy))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Import godoc
// @Summary Import issues from CSV
// @Description Accepts a multipart file field or a raw CSV body. Rows that
// @Description fail validation are reported; valid rows are created in one
// @Description best-effort batch.
// @Tags Bulk
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /issues/import [post]
func (h *BulkHandler) Import(c *gin.Context) {
	if h.importer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "import service not configured"))
		return
	}
	var reader io.Reader
	if fileHeader, err := c.FormFile("file"); err == nil {
		src, openErr := fileHeader.Open()
		if openErr != nil {
			response.Error(c, appErrors.Wrap(openErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
			return
		}
		defer src.Close()
		reader = src
	} else if c.Request.Body != nil {
		reader = c.Request.Body
	} else {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	var actorID string
	if actor := actorFromContext(c); actor != nil {
		actorID = *actor
	}
	report, err := h.importer.Import(c.Request.Context(), reader, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
