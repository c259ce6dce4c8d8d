package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/ingestion"
)

type ThreadsHandler struct {
	ingestionService *ingestion.IngestionService
}

func NewThreadsHandler(ingestionService *ingestion.IngestionService) *ThreadsHandler {
	return &ThreadsHandler{ingestionService: ingestionService}
}

// GetMessageThread returns every message in the thread of the message
// identified by record id or Message-ID header value, in sent order.
func (h *ThreadsHandler) GetMessageThread(c *gin.Context) {
	messages, err := h.ingestionService.GetMessageThread(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ingesterr.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load thread"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(messages),
		"messages": messages,
	})
}
