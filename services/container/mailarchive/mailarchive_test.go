package mailarchive

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
)

func emlBody(messageID, subject string) string {
	return fmt.Sprintf("Message-ID: <%s>\r\nSubject: %s\r\nFrom: Alice <alice@example.com>\r\nTo: bob@example.com\r\nDate: Mon, 02 Jan 2023 10:00:00 +0000\r\nContent-Type: text/plain\r\n\r\nhello\r\n", messageID, subject)
}

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mailbox.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, body := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpen_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrContainerCorrupt))
}

func TestWalk_TraversalOrder(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Inbox/Claims/0001.eml": emlBody("c1@x", "claim one"),
		"Inbox/0001.eml":        emlBody("i1@x", "inbox one"),
		"Inbox/0002.eml":        emlBody("i2@x", "inbox two"),
		"Sent/0001.eml":         emlBody("s1@x", "sent one"),
		"Inbox/Archive/old.eml": emlBody("a1@x", "archived"),
	})

	handle, err := Open(path)
	require.NoError(t, err)
	defer handle.Close()

	assert.Equal(t, Format, handle.Format())
	assert.NotEmpty(t, handle.ContentHash())

	var visited []string
	var messageCounts []int
	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		visited = append(visited, folder.Path)
		messageCounts = append(messageCounts, len(messages))
		return nil
	})
	require.NoError(t, err)

	// Parents before children, siblings lexically.
	assert.Equal(t, []string{"Inbox", "Inbox/Archive", "Inbox/Claims", "Sent"}, visited)
	assert.Equal(t, []int{2, 1, 1, 1}, messageCounts)
}

func TestWalk_MessageFields(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Inbox/0001.eml": emlBody("msg1@example.com", "Progress report"),
	})

	handle, err := Open(path)
	require.NoError(t, err)
	defer handle.Close()

	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		require.Len(t, messages, 1)
		msg := messages[0]

		assert.Equal(t, "Inbox/0001.eml", msg.Locator())

		id, ok := msg.TryGetField(interfaces.FieldMessageID)
		require.True(t, ok)
		assert.Equal(t, "<msg1@example.com>", id)

		subject, ok := msg.TryGetField(interfaces.FieldSubject)
		require.True(t, ok)
		assert.Equal(t, "Progress report", subject)

		from, ok := msg.TryGetField(interfaces.FieldFrom)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", from)

		// Absent headers probe false.
		_, ok = msg.TryGetField(interfaces.FieldInReplyTo)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestWalk_BrokenMessageYieldsEmptyCapabilities(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Inbox/good.eml":   emlBody("good@x", "fine"),
		"Inbox/broken.eml": "\x00\x01\x02 not a mime message at all",
	})

	handle, err := Open(path)
	require.NoError(t, err)
	defer handle.Close()

	total := 0
	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		total += len(messages)
		return nil
	})
	require.NoError(t, err)
	// Both entries surface; the broken one just has nothing to give.
	assert.Equal(t, 2, total)
}

func TestWalk_SinglePass(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Inbox/0001.eml": emlBody("m@x", "s"),
	})

	handle, err := Open(path)
	require.NoError(t, err)
	defer handle.Close()

	noop := func(interfaces.FolderRef, []interfaces.RawMessage) error { return nil }
	require.NoError(t, handle.Walk(context.Background(), noop))
	assert.Error(t, handle.Walk(context.Background(), noop))
}

func TestWalk_NonEmlEntriesSkipped(t *testing.T) {
	path := writeArchive(t, map[string]string{
		"Inbox/0001.eml":  emlBody("m@x", "s"),
		"Inbox/notes.txt": "not a message",
	})

	handle, err := Open(path)
	require.NoError(t, err)
	defer handle.Close()

	total := 0
	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		total += len(messages)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
