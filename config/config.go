package config

type AppConfig struct {
	APIPort     string `env:"PORT" envDefault:"12250"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type StorageConfig struct {
	AccountID        string `env:"R2_ACCOUNT_ID"`
	AccessKeyID      string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret  string `env:"R2_ACCESS_KEY_SECRET"`
	AttachmentBucket string `env:"BUCKET_NAME_EVIDENCE_ATTACHMENT" envDefault:"evidence-attachments"`
}

type IngestionConfig struct {
	// Records buffered before a batch commit.
	BatchCommitSize int `env:"INGEST_BATCH_COMMIT_SIZE" envDefault:"500"`
	// Concurrent attachment uploads per run.
	UploadWorkers int `env:"INGEST_UPLOAD_WORKERS" envDefault:"8"`
	// Plausibility bound for stored file extensions.
	MaxExtensionLength int `env:"INGEST_MAX_EXTENSION_LENGTH" envDefault:"16"`

	// Decorative-image size floors, in bytes. Images under the first are
	// always dropped; under the second only when they carry a content-id;
	// under the third only when an inline body reference is confirmed.
	ImageDiscardFloor     int64 `env:"INGEST_IMAGE_DISCARD_FLOOR" envDefault:"4096"`
	InlineImageFloor      int64 `env:"INGEST_INLINE_IMAGE_FLOOR" envDefault:"65536"`
	BodyReferencedFloor   int64 `env:"INGEST_BODY_REFERENCED_FLOOR" envDefault:"262144"`
	InlineMarkerSizeLimit int64 `env:"INGEST_INLINE_MARKER_SIZE_LIMIT" envDefault:"512000"`
}

type DispatchConfig struct {
	MaxRetries     int `env:"DISPATCH_MAX_RETRIES" envDefault:"3"`
	QueueCapacity  int `env:"DISPATCH_QUEUE_CAPACITY" envDefault:"1024"`
	BackoffSeconds int `env:"DISPATCH_BACKOFF_SECONDS" envDefault:"1"`
}
