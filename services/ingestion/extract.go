package ingestion

import (
	"net/mail"
	"strings"
	"time"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

// fallbackDateLayouts cover timestamp shapes seen in exported archives that
// net/mail rejects. Layouts without a zone are taken as UTC.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// extractMessage builds a message record from a raw container message,
// probing one field at a time. A field the container cannot produce gets the
// zero value; extraction never fails a message outright. Diagnostics name the
// folder and ordinal only, message content stays out of the logs.
func extractMessage(raw interfaces.RawMessage, folder interfaces.FolderRef, ordinal int, containerID, caseID string, log logger.Logger) *models.Message {
	msg := &models.Message{
		ContainerID:   containerID,
		CaseID:        caseID,
		Locator:       raw.Locator(),
		FolderPath:    folder.Path,
		FolderOrdinal: ordinal,
	}

	missing := 0
	field := func(name string) string {
		value, ok := raw.TryGetField(name)
		if !ok {
			missing++
			return ""
		}
		return value
	}

	msg.MessageID = utils.NormalizeMessageID(field(interfaces.FieldMessageID))
	msg.InReplyTo = utils.NormalizeMessageID(field(interfaces.FieldInReplyTo))
	msg.References = utils.ParseReferences(field(interfaces.FieldReferences))
	msg.ConversationIndex = field(interfaces.FieldConversationIndex)

	msg.Subject = field(interfaces.FieldSubject)
	msg.CleanSubject = utils.NormalizeSubject(msg.Subject)
	msg.FromAddress = strings.ToLower(field(interfaces.FieldFrom))
	msg.FromName = field(interfaces.FieldFromName)
	msg.ToAddresses = splitAddresses(field(interfaces.FieldTo))
	msg.CcAddresses = splitAddresses(field(interfaces.FieldCc))

	if rawDate := field(interfaces.FieldDate); rawDate != "" {
		if sentAt, ok := parseDate(rawDate); ok {
			msg.SentAt = &sentAt
		} else {
			log.Warnf("unparseable date on message %d in folder %s", ordinal, folder.Path)
		}
	}

	if missing > 0 {
		log.Debugf("message %d in folder %s: %d fields unavailable", ordinal, folder.Path, missing)
	}

	return msg
}

// parseDate normalizes every accepted timestamp to UTC. Timestamps carrying
// no zone are assumed UTC rather than guessed from locale.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := mail.ParseDate(raw); err == nil {
		return t.UTC(), true
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func splitAddresses(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return []string{}
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		addr := strings.ToLower(strings.TrimSpace(p))
		if addr != "" {
			out = append(out, addr)
		}
	}
	return utils.UniqueStrings(out)
}
