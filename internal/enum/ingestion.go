package enum

type ContainerStatus string

const (
	ContainerPending    ContainerStatus = "pending"
	ContainerProcessing ContainerStatus = "processing"
	ContainerCompleted  ContainerStatus = "completed"
	ContainerFailed     ContainerStatus = "failed"
)

func (t ContainerStatus) String() string {
	return string(t)
}

type ContainerFormat string

const (
	FormatMailArchive ContainerFormat = "mailarchive"
	FormatMbox        ContainerFormat = "mbox"
)

func (t ContainerFormat) String() string {
	return string(t)
}

type ExtractionStatus string

const (
	ExtractionPending      ExtractionStatus = "pending"
	ExtractionProcessing   ExtractionStatus = "processing"
	ExtractionCompleted    ExtractionStatus = "completed"
	ExtractionFailed       ExtractionStatus = "failed"
	ExtractionNotSubmitted ExtractionStatus = "not_submitted"
)

func (t ExtractionStatus) String() string {
	return string(t)
}

// Terminal reports whether the status is final and must not be overwritten.
func (t ExtractionStatus) Terminal() bool {
	return t == ExtractionCompleted || t == ExtractionFailed
}
