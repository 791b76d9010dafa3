package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xaenox/inbox-sentry/pkg/config"
)

const metaAPIBase = "https://graph.facebook.com/v19.0"

// MetaNotifier sends WhatsApp messages through the Meta Cloud API.
type MetaNotifier struct {
	phoneNumberID string
	accessToken   string
	client        *http.Client
	baseURL       string
}

func NewMetaNotifier(cfg config.WhatsAppConfig) *MetaNotifier {
	return &MetaNotifier{
		phoneNumberID: cfg.MetaPhoneNumberID,
		accessToken:   cfg.MetaAccessToken,
		client:        &http.Client{Timeout: 30 * time.Second},
		baseURL:       metaAPIBase,
	}
}

func (n *MetaNotifier) Notify(ctx context.Context, identity, text string) error {
	endpoint := fmt.Sprintf("%s/%s/messages", n.baseURL, n.phoneNumberID)

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                identity,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding meta payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building meta request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending meta message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("meta returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
