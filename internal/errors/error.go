package errors

import "github.com/pkg/errors"

var (
	// container errors
	ErrContainerCorrupt    = errors.New("container root structure unreadable")
	ErrUnsupportedFormat   = errors.New("unsupported container format")
	ErrContainerNotFound   = errors.New("container not found")
	ErrContainerProcessing = errors.New("container ingestion already in progress")

	// attachment errors
	ErrAttachmentUnreadable   = errors.New("attachment bytes unreadable")
	ErrImplausibleExtension   = errors.New("filename remainder is not a plausible extension")
	ErrExtractionNotSubmitted = errors.New("extraction job not submitted")
	ErrDispatcherDraining     = errors.New("dispatcher is shutting down")

	// lookup errors
	ErrMessageNotFound = errors.New("message not found")
)
