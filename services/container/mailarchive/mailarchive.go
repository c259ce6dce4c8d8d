package mailarchive

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/container/envelope"
)

const Format = "mailarchive"

// folderNode is one folder in the archive tree. Children are visited in
// lexical order, messages in the order their entries appear in the archive.
type folderNode struct {
	name     string
	path     string
	children map[string]*folderNode
	entries  []*zip.File
}

// handle is an open mail archive: a zip of .eml files whose directory layout
// is the mailbox folder tree.
type handle struct {
	reader      *zip.ReadCloser
	contentHash string
	root        *folderNode
	walked      bool
}

// Open reads the archive's central directory and hashes the source file.
// A file that cannot be read as a zip archive reports a corrupt container
// rather than an io error, since the caller treats the two differently.
func Open(path string) (interfaces.ContainerHandle, error) {
	contentHash, err := utils.HashFile(path)
	if err != nil {
		return nil, err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(ingesterr.ErrContainerCorrupt, err.Error())
	}

	h := &handle{
		reader:      reader,
		contentHash: contentHash,
		root:        newFolderNode("", ""),
	}
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			h.folderFor(strings.TrimSuffix(entry.Name, "/"))
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Name), ".eml") {
			continue
		}
		folder := h.folderFor(dirOf(entry.Name))
		folder.entries = append(folder.entries, entry)
	}
	return h, nil
}

func (h *handle) Format() string {
	return Format
}

func (h *handle) ContentHash() string {
	return h.contentHash
}

// Walk visits the folder tree with an explicit stack: parent before children,
// siblings lexically. The walk is single-pass.
func (h *handle) Walk(ctx context.Context, visit interfaces.FolderVisitor) error {
	if h.walked {
		return errors.New("container already walked, re-open to walk again")
	}
	h.walked = true

	stack := []*folderNode{h.root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node != h.root || len(node.entries) > 0 {
			messages, err := h.readFolder(node)
			if err != nil {
				return err
			}
			if err := visit(interfaces.FolderRef{Name: node.name, Path: node.path}, messages); err != nil {
				return err
			}
		}

		names := make([]string, 0, len(node.children))
		for name := range node.children {
			names = append(names, name)
		}
		sort.Strings(names)
		// Pushed in reverse so the stack pops them lexically.
		for i := len(names) - 1; i >= 0; i-- {
			stack = append(stack, node.children[names[i]])
		}
	}
	return nil
}

func (h *handle) Close() error {
	return h.reader.Close()
}

func (h *handle) readFolder(node *folderNode) ([]interfaces.RawMessage, error) {
	messages := make([]interfaces.RawMessage, 0, len(node.entries))
	for _, entry := range node.entries {
		raw, err := readEntry(entry)
		if err != nil {
			// A single unreadable entry becomes an empty-capability
			// message; the caller records it with defaults.
			messages = append(messages, envelope.Parse(entry.Name, nil))
			continue
		}
		messages = append(messages, envelope.Parse(entry.Name, raw))
	}
	return messages, nil
}

func (h *handle) folderFor(dir string) *folderNode {
	if dir == "" || dir == "." {
		return h.root
	}
	node := h.root
	for _, part := range strings.Split(dir, "/") {
		child, ok := node.children[part]
		if !ok {
			childPath := part
			if node.path != "" {
				childPath = node.path + "/" + part
			}
			child = newFolderNode(part, childPath)
			node.children[part] = child
		}
		node = child
	}
	return node
}

func newFolderNode(name, nodePath string) *folderNode {
	return &folderNode{
		name:     name,
		path:     nodePath,
		children: map[string]*folderNode{},
	}
}

func dirOf(entryName string) string {
	dir := path.Dir(strings.TrimSuffix(entryName, "/"))
	if dir == "." {
		return ""
	}
	return dir
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
