package threads

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Index holds the thread lookup state for one ingestion run. It is built up
// as messages are registered and consulted by Resolve; callers own the
// instance and its lifetime, nothing here is shared across runs.
type Index struct {
	byMessageID        map[string]string
	byConversationRoot map[string]string
	bySubject          map[string]string
}

func NewIndex() *Index {
	return &Index{
		byMessageID:        map[string]string{},
		byConversationRoot: map[string]string{},
		bySubject:          map[string]string{},
	}
}

// Register records a resolved message under every key later messages can
// match on: its own id, every referenced id, its conversation root, and its
// normalized subject. First writer wins per key, so replays cannot re-point
// a key at a different thread.
func (idx *Index) Register(c Candidate, threadID string) {
	if c.MessageID != "" {
		idx.claimMessageID(c.MessageID, threadID)
	}
	// A reply may point at an ancestor we only ever saw referenced, never as
	// a message of its own.
	for _, ref := range c.References {
		idx.claimMessageID(ref, threadID)
	}

	if root := DecodeConversationRoot(c.ConversationIndex); root != "" {
		if _, taken := idx.byConversationRoot[root]; !taken {
			idx.byConversationRoot[root] = threadID
		}
	}

	if c.CleanSubject != "" {
		if _, taken := idx.bySubject[c.CleanSubject]; !taken {
			idx.bySubject[c.CleanSubject] = threadID
		}
	}
}

func (idx *Index) claimMessageID(messageID, threadID string) {
	if _, taken := idx.byMessageID[messageID]; !taken {
		idx.byMessageID[messageID] = threadID
	}
}

func (idx *Index) lookupMessageID(messageID string) (string, bool) {
	threadID, ok := idx.byMessageID[messageID]
	return threadID, ok
}

func (idx *Index) lookupConversationRoot(root string) (string, bool) {
	threadID, ok := idx.byConversationRoot[root]
	return threadID, ok
}

func (idx *Index) lookupSubject(cleanSubject string) (string, bool) {
	threadID, ok := idx.bySubject[cleanSubject]
	return threadID, ok
}

// conversationRootLength is the fixed prefix of a conversation index that
// identifies the originating message; reply suffixes extend past it.
const conversationRootLength = 22

// DecodeConversationRoot extracts the thread root from a conversation index
// header. The value arrives base64 encoded on the wire and hex encoded from
// property dumps; both are accepted. Anything too short to contain a root
// yields "".
func DecodeConversationRoot(raw string) string {
	if raw == "" {
		return ""
	}

	var decoded []byte
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		decoded = b
	} else if b, err := hex.DecodeString(raw); err == nil {
		decoded = b
	} else {
		return ""
	}

	if len(decoded) < conversationRootLength {
		return ""
	}
	return hex.EncodeToString(decoded[:conversationRootLength])
}

// ThreadIDFromSeed derives a stable thread id from a message identity seed.
// The same container ingested twice yields identical thread ids.
func ThreadIDFromSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return "thread_" + hex.EncodeToString(sum[:])[:16]
}
