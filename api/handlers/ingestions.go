package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/ingestion"
)

type IngestionsHandler struct {
	ingestionService *ingestion.IngestionService
}

func NewIngestionsHandler(ingestionService *ingestion.IngestionService) *IngestionsHandler {
	return &IngestionsHandler{ingestionService: ingestionService}
}

type createIngestionRequest struct {
	CaseID     string `json:"caseId" binding:"required"`
	SourcePath string `json:"sourcePath" binding:"required"`
}

// Create registers an archive for ingestion and kicks off the run in the
// background. Responds 202 with the container record to poll.
func (h *IngestionsHandler) Create(c *gin.Context) {
	var request createIngestionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.ingestionService.StartIngestion(c.Request.Context(), request.CaseID, request.SourcePath)
	if err != nil {
		switch {
		case errors.Is(err, ingesterr.ErrUnsupportedFormat):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, ingesterr.ErrContainerCorrupt):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, ingesterr.ErrContainerProcessing):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start ingestion"})
		}
		return
	}

	c.JSON(http.StatusAccepted, record)
}

// Get returns one container record with its run summary.
func (h *IngestionsHandler) Get(c *gin.Context) {
	record, err := h.ingestionService.GetContainer(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ingesterr.ErrContainerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load container"})
		return
	}

	c.JSON(http.StatusOK, record)
}
