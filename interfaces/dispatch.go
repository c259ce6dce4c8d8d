package interfaces

import (
	"context"

	"github.com/williamcjrogers/VeriCaseJet-sub003/dto"
)

// ExtractionDispatcher hands retained attachments to the external
// content-extraction pipeline. Submit is non-blocking: it enqueues the job
// and returns immediately; delivery, bounded retry, and the
// "not submitted" fallback happen in the background.
type ExtractionDispatcher interface {
	Submit(ctx context.Context, job dto.ExtractionJob) (dto.JobRef, error)
	Drain(ctx context.Context) error
}
