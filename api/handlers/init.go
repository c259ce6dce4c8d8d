package handlers

import (
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/ingestion"
)

type Handlers struct {
	Ingestions *IngestionsHandler
	Threads    *ThreadsHandler
}

func InitHandlers(ingestionService *ingestion.IngestionService) *Handlers {
	return &Handlers{
		Ingestions: NewIngestionsHandler(ingestionService),
		Threads:    NewThreadsHandler(ingestionService),
	}
}
