package models

import "strings"

// NormalizeIdentity canonicalizes a chat identity so context keys written by
// ingestion and read by the webhook match byte-for-byte. Twilio prefixes
// numbers with "whatsapp:" and keeps the "+", Meta sends the bare number;
// both collapse to the bare form.
func NormalizeIdentity(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, "whatsapp:")
	id = strings.TrimPrefix(id, "+")
	return id
}
