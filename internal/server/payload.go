package server

import (
	"encoding/json"
	"strings"

	"github.com/xaenox/inbox-sentry/internal/models"
)

// metaPayload is the shape Meta Cloud API posts to the webhook. Only the
// first message of the first change matters; everything else on the
// envelope is status noise.
type metaPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// parseMetaPayload normalizes a Meta JSON body. ok is false for status
// updates, non-text messages and anything unparseable; those are
// acknowledged without reaching the engine.
func parseMetaPayload(body []byte) (models.InboundMessage, bool) {
	var payload metaPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.InboundMessage{}, false
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return models.InboundMessage{}, false
	}

	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		// Delivery/read status update.
		return models.InboundMessage{}, false
	}

	msg := value.Messages[0]
	if msg.Type != "" && msg.Type != "text" {
		return models.InboundMessage{}, false
	}
	text := strings.TrimSpace(msg.Text.Body)
	if text == "" || msg.From == "" {
		return models.InboundMessage{}, false
	}

	return models.InboundMessage{
		Sender: models.NormalizeIdentity(msg.From),
		Text:   text,
	}, true
}

// parseTwilioForm normalizes Twilio's form-encoded Body/From fields.
func parseTwilioForm(body, from string) (models.InboundMessage, bool) {
	text := strings.TrimSpace(body)
	if text == "" || from == "" {
		return models.InboundMessage{}, false
	}
	return models.InboundMessage{
		Sender: models.NormalizeIdentity(from),
		Text:   text,
	}, true
}
