package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/storage/aws_client"
)

// ObjectStorageService stores attachment bytes in a private bucket. Keys are
// content-addressed (see ContentAddressedKey) so identical bytes land on the
// same object and are written once.
type ObjectStorageService struct {
	client     aws_client.S3Client
	bucketName string
}

func NewStorageService(client aws_client.S3Client, bucketName string) interfaces.StorageService {
	return &ObjectStorageService{
		client:     client,
		bucketName: bucketName,
	}
}

func NewR2StorageService(accountID, accessKeyID, accessKeySecret, bucketName string) interfaces.StorageService {
	client := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       accountID,
		AccessKeyID:     accessKeyID,
		AccessKeySecret: accessKeySecret,
		BucketName:      bucketName,
	})
	return NewStorageService(client, bucketName)
}

// ContentAddressedKey derives the storage key for attachment bytes from the
// owning case and the content hash. The two-character fan-out keeps bucket
// listings usable on large cases.
func ContentAddressedKey(caseID, contentHash, filename string) string {
	return fmt.Sprintf("attachments/%s/%s/%s_%s", caseID, contentHash[:2], contentHash, filename)
}

func (s *ObjectStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Upload")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("storage_key", key)

	// Identical bytes map to an identical key; skip the re-upload.
	exists, err := s.client.Exists(ctx, s.bucketName, key)
	if err == nil && exists {
		span.SetTag("deduplicated", true)
		return nil
	}

	return s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
}

func (s *ObjectStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Download")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.client.Download(ctx, s.bucketName, key)
}

func (s *ObjectStorageService) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Delete")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.client.Delete(ctx, s.bucketName, key)
}

func (s *ObjectStorageService) Bucket() string {
	return s.bucketName
}
