package threads

// Candidate carries the threading fields of one message, already normalized
// by the extractor: message ids without angle brackets, subject case-folded
// with reply prefixes stripped.
type Candidate struct {
	MessageID         string
	InReplyTo         string
	References        []string
	ConversationIndex string
	CleanSubject      string
	// Locator seeds the thread id when the message has no Message-ID.
	Locator string
}

// Resolve assigns the candidate to a thread and registers it in the index.
// Signals are tried strongest first:
//
//  1. In-Reply-To pointing at a known message
//  2. any References entry pointing at a known message
//  3. shared conversation index root
//  4. same normalized subject seen before
//  5. a new thread anchored on this message
func Resolve(idx *Index, c Candidate) string {
	threadID, ok := resolveExisting(idx, c)
	if !ok {
		seed := c.MessageID
		if seed == "" {
			seed = c.Locator
		}
		threadID = ThreadIDFromSeed(seed)
	}

	idx.Register(c, threadID)
	return threadID
}

func resolveExisting(idx *Index, c Candidate) (string, bool) {
	if c.InReplyTo != "" {
		if threadID, ok := idx.lookupMessageID(c.InReplyTo); ok {
			return threadID, true
		}
	}

	for _, ref := range c.References {
		if threadID, ok := idx.lookupMessageID(ref); ok {
			return threadID, true
		}
	}

	if root := DecodeConversationRoot(c.ConversationIndex); root != "" {
		if threadID, ok := idx.lookupConversationRoot(root); ok {
			return threadID, true
		}
	}

	if c.CleanSubject != "" {
		if threadID, ok := idx.lookupSubject(c.CleanSubject); ok {
			return threadID, true
		}
	}

	return "", false
}
