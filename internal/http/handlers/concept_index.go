package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/typegrove/curricula-backend/internal/http/response"
	"github.com/typegrove/curricula-backend/internal/platform/logger"
	"github.com/typegrove/curricula-backend/internal/services/conceptindex"
)

type ConceptIndexHandler struct {
	log     *logger.Logger
	indexer *conceptindex.Service
}

func NewConceptIndexHandler(baseLog *logger.Logger, indexer *conceptindex.Service) *ConceptIndexHandler {
	return &ConceptIndexHandler{
		log:     baseLog.With("handler", "ConceptIndexHandler"),
		indexer: indexer,
	}
}

// POST /api/concepts/index
func (h *ConceptIndexHandler) Reindex(c *gin.Context) {
	summary, err := h.indexer.IndexAll(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("concept reindex failed", "error", err)
		response.RespondError(c, http.StatusBadGateway, "CONCEPT_INDEX_FAILED", err)
		return
	}
	response.RespondOK(c, gin.H{
		"concepts": summary.Concepts,
		"upserted": summary.Upserted,
	})
}
