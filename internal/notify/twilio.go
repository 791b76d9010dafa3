package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xaenox/inbox-sentry/pkg/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioNotifier sends WhatsApp messages through the Twilio REST API.
type TwilioNotifier struct {
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	baseURL    string
}

func NewTwilioNotifier(cfg config.WhatsAppConfig) *TwilioNotifier {
	return &TwilioNotifier{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFrom,
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    twilioAPIBase,
	}
}

func (n *TwilioNotifier) Notify(ctx context.Context, identity, text string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", n.baseURL, n.accountSID)

	form := url.Values{}
	form.Set("From", n.from)
	form.Set("To", "whatsapp:+"+identity)
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building twilio request: %w", err)
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending twilio message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding twilio response: %w", err)
	}
	if result.SID == "" {
		return fmt.Errorf("twilio accepted the message but returned no SID")
	}
	return nil
}
