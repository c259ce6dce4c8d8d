package dto

// ExtractionJob is the submission shape handed to the external
// content-extraction (OCR/text) pipeline: just enough to fetch the bytes and
// report back against the attachment id. The pipeline owns the job after
// submission.
type ExtractionJob struct {
	AttachmentID  string `json:"attachmentId"`
	MessageID     string `json:"messageId"`
	CaseID        string `json:"caseId"`
	StorageBucket string `json:"storageBucket"`
	StorageKey    string `json:"storageKey"`
	ContentType   string `json:"contentType"`
	ContentHash   string `json:"contentHash"`
}

// JobRef identifies one submission attempt.
type JobRef struct {
	ID           string `json:"id"`
	AttachmentID string `json:"attachmentId"`
}

// ExtractionResult is reported back asynchronously by the extraction
// pipeline. Status is terminal: "completed" or "failed".
type ExtractionResult struct {
	AttachmentID string `json:"attachmentId"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}
