package ingestion

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/dto"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

type fakeMessageRepo struct {
	mu           sync.Mutex
	messages     []*models.Message
	failBatch    bool
	failLocators map[string]bool
	// invoked before every batch insert
	onCreateBatch func()
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{failLocators: map[string]bool{}}
}

func (r *fakeMessageRepo) find(containerID, locator string) *models.Message {
	for _, m := range r.messages {
		if m.ContainerID == containerID && m.Locator == locator {
			return m
		}
	}
	return nil
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *models.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLocators[message.Locator] {
		return "", errors.New("simulated insert failure")
	}
	if existing := r.find(message.ContainerID, message.Locator); existing != nil {
		return existing.ID, nil
	}
	if message.ID == "" {
		message.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
	}
	r.messages = append(r.messages, message)
	return message.ID, nil
}

func (r *fakeMessageRepo) CreateBatch(ctx context.Context, messages []*models.Message) error {
	if r.onCreateBatch != nil {
		r.onCreateBatch()
	}
	r.mu.Lock()
	if r.failBatch {
		r.mu.Unlock()
		return errors.New("simulated batch failure")
	}
	r.mu.Unlock()
	for _, m := range messages {
		r.mu.Lock()
		if existing := r.find(m.ContainerID, m.Locator); existing != nil {
			r.mu.Unlock()
			continue
		}
		if m.ID == "" {
			m.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
		}
		r.messages = append(r.messages, m)
		r.mu.Unlock()
	}
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) GetByMessageID(ctx context.Context, messageID string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	messageID = utils.NormalizeMessageID(messageID)
	for _, m := range r.messages {
		if m.MessageID == messageID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) GetByContainerAndLocator(ctx context.Context, containerID, locator string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(containerID, locator), nil
}

func (r *fakeMessageRepo) ListByThreadID(ctx context.Context, threadID string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) CountByContainer(ctx context.Context, containerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.messages {
		if m.ContainerID == containerID {
			count++
		}
	}
	return count, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments []*models.Attachment
	failBatch   bool
	failIDs     map[string]bool
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{failIDs: map[string]bool{}}
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *models.Attachment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failIDs[attachment.ID] {
		return "", errors.New("simulated insert failure")
	}
	if attachment.ID == "" {
		attachment.ID = utils.GenerateNanoIDWithPrefix("att", 16)
	}
	r.attachments = append(r.attachments, attachment)
	return attachment.ID, nil
}

func (r *fakeAttachmentRepo) CreateBatch(ctx context.Context, attachments []*models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failBatch {
		return errors.New("simulated batch failure")
	}
	r.attachments = append(r.attachments, attachments...)
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attachments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAttachmentRepo) GetByContentHash(ctx context.Context, caseID, contentHash string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attachments {
		if a.CaseID == caseID && a.ContentHash == contentHash {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAttachmentRepo) ListByMessage(ctx context.Context, messageID string) ([]*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Attachment
	for _, a := range r.attachments {
		if a.MessageID == messageID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) UpdateExtractionStatus(ctx context.Context, id string, status enum.ExtractionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attachments {
		if a.ID == id && !a.ExtractionStatus.Terminal() {
			a.ExtractionStatus = status
		}
	}
	return nil
}

func (r *fakeAttachmentRepo) MarkExtractionResult(ctx context.Context, id string, status enum.ExtractionStatus, extractionError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attachments {
		if a.ID == id && !a.ExtractionStatus.Terminal() {
			a.ExtractionStatus = status
			a.ExtractionError = extractionError
		}
	}
	return nil
}

type fakeContainerRepo struct {
	mu         sync.Mutex
	containers []*models.Container
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{}
}

func (r *fakeContainerRepo) Create(ctx context.Context, container *models.Container) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if container.ID == "" {
		container.ID = utils.GenerateNanoIDWithPrefix("cntr", 16)
	}
	r.containers = append(r.containers, container)
	return container.ID, nil
}

func (r *fakeContainerRepo) GetByID(ctx context.Context, id string) (*models.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.containers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeContainerRepo) GetByCaseAndHash(ctx context.Context, caseID, contentHash string) (*models.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.containers {
		if c.CaseID == caseID && c.ContentHash == contentHash {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeContainerRepo) ListByStatus(ctx context.Context, status enum.ContainerStatus) ([]*models.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Container
	for _, c := range r.containers {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContainerRepo) UpdateStatus(ctx context.Context, id string, status enum.ContainerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.containers {
		if c.ID == id {
			c.Status = status
		}
	}
	return nil
}

func (r *fakeContainerRepo) SaveRunResults(ctx context.Context, container *models.Container) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.containers {
		if c.ID == container.ID {
			r.containers[i] = container
		}
	}
	return nil
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	uploads  int
	failNext bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("simulated upload failure")
	}
	if _, exists := s.objects[key]; !exists {
		s.uploads++
		s.objects[key] = data
	}
	return nil
}

func (s *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) Bucket() string { return "test-bucket" }

type fakeDispatcher struct {
	mu        sync.Mutex
	jobs      []dto.ExtractionJob
	submitErr error
}

func (d *fakeDispatcher) Submit(ctx context.Context, job dto.ExtractionJob) (dto.JobRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitErr != nil {
		return dto.JobRef{}, d.submitErr
	}
	d.jobs = append(d.jobs, job)
	return dto.JobRef{ID: "job_" + job.AttachmentID, AttachmentID: job.AttachmentID}, nil
}

func (d *fakeDispatcher) Drain(ctx context.Context) error { return nil }

func (d *fakeDispatcher) jobCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}
