package mboxfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/emersion/go-mbox"
	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/container/envelope"
)

const Format = "mbox"

const mboxSeparator = "From "

// inboxFolder is the single folder an mbox file maps to; the format has no
// folder hierarchy of its own.
var inboxFolder = interfaces.FolderRef{Name: "Inbox", Path: "Inbox"}

type handle struct {
	file        *os.File
	contentHash string
	walked      bool
}

func Open(path string) (interfaces.ContainerHandle, error) {
	contentHash, err := utils.HashFile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	// Root structure check: a non-empty mbox starts with a "From " separator
	// line. An empty file is a valid zero-message mailbox.
	header := make([]byte, len(mboxSeparator))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, err
	}
	if n > 0 && string(header[:n]) != mboxSeparator[:n] {
		f.Close()
		return nil, errors.Wrap(ingesterr.ErrContainerCorrupt, "missing mbox separator line")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	return &handle{file: f, contentHash: contentHash}, nil
}

func (h *handle) Format() string {
	return Format
}

func (h *handle) ContentHash() string {
	return h.contentHash
}

func (h *handle) Walk(ctx context.Context, visit interfaces.FolderVisitor) error {
	if h.walked {
		return errors.New("container already walked, re-open to walk again")
	}
	h.walked = true

	if err := ctx.Err(); err != nil {
		return err
	}

	reader := mbox.NewReader(h.file)
	var messages []interfaces.RawMessage
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		locator := fmt.Sprintf("Inbox/%06d", i)
		if err != nil {
			// Malformed separator state; keep a placeholder record and
			// stop, the rest of the stream is unrecoverable.
			messages = append(messages, envelope.Parse(locator, nil))
			break
		}

		raw, err := io.ReadAll(msg)
		if err != nil {
			messages = append(messages, envelope.Parse(locator, nil))
			continue
		}
		messages = append(messages, envelope.Parse(locator, raw))
	}

	return visit(inboxFolder, messages)
}

func (h *handle) Close() error {
	return h.file.Close()
}
