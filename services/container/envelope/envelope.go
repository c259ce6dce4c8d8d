package envelope

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
)

// Message adapts a parsed MIME envelope to the container message handle.
// A message that failed to parse still yields a usable handle: every field
// probe reports absent and the attachment list is empty, so one broken
// message never aborts a run.
type Message struct {
	locator string
	env     *enmime.Envelope
}

func Parse(locator string, raw []byte) *Message {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return &Message{locator: locator}
	}
	return &Message{locator: locator, env: env}
}

func (m *Message) Locator() string {
	return m.locator
}

func (m *Message) TryGetField(name string) (string, bool) {
	if m.env == nil {
		return "", false
	}

	switch name {
	case interfaces.FieldMessageID:
		return header(m.env, "Message-ID")
	case interfaces.FieldInReplyTo:
		return header(m.env, "In-Reply-To")
	case interfaces.FieldReferences:
		return header(m.env, "References")
	case interfaces.FieldConversationIndex:
		return header(m.env, "Thread-Index")
	case interfaces.FieldSubject:
		return header(m.env, "Subject")
	case interfaces.FieldFrom:
		addr, _, ok := firstAddress(m.env, "From")
		return addr, ok
	case interfaces.FieldFromName:
		_, personal, ok := firstAddress(m.env, "From")
		if ok && personal == "" {
			return "", false
		}
		return personal, ok
	case interfaces.FieldTo:
		return addressList(m.env, "To")
	case interfaces.FieldCc:
		return addressList(m.env, "Cc")
	case interfaces.FieldDate:
		return header(m.env, "Date")
	case interfaces.FieldBodyHTML:
		if m.env.HTML == "" {
			return "", false
		}
		return m.env.HTML, true
	default:
		return "", false
	}
}

func (m *Message) Attachments() []interfaces.RawAttachment {
	if m.env == nil {
		return nil
	}

	var out []interfaces.RawAttachment
	for _, group := range [][]*enmime.Part{m.env.Attachments, m.env.Inlines, m.env.OtherParts} {
		for _, part := range group {
			if part.FileName == "" && part.ContentID == "" {
				continue
			}
			out = append(out, &attachment{part: part})
		}
	}
	return out
}

type attachment struct {
	part *enmime.Part
}

func (a *attachment) Filename() string {
	return a.part.FileName
}

func (a *attachment) ContentType() string {
	return a.part.ContentType
}

func (a *attachment) ContentID() string {
	return strings.Trim(a.part.ContentID, "<>")
}

func (a *attachment) Size() int64 {
	return int64(len(a.part.Content))
}

func (a *attachment) Read() ([]byte, error) {
	return a.part.Content, nil
}

func header(env *enmime.Envelope, key string) (string, bool) {
	value := strings.TrimSpace(env.GetHeader(key))
	if value == "" {
		return "", false
	}
	return value, true
}

func firstAddress(env *enmime.Envelope, key string) (addr, personal string, ok bool) {
	list, err := env.AddressList(key)
	if err != nil || len(list) == 0 {
		return "", "", false
	}
	return list[0].Address, list[0].Name, true
}

func addressList(env *enmime.Envelope, key string) (string, bool) {
	list, err := env.AddressList(key)
	if err != nil || len(list) == 0 {
		return "", false
	}
	addrs := make([]string, 0, len(list))
	for _, a := range list {
		addrs = append(addrs, a.Address)
	}
	return strings.Join(addrs, ", "), true
}
