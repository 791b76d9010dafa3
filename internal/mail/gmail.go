package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/http"
	nmail "net/mail"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/xaenox/inbox-sentry/pkg/config"
)

const gmailAPIBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// GmailClient implements Fetcher and Sender over the Gmail REST API using a
// stored OAuth refresh token. The interactive consent flow is outside this
// program; it only refreshes.
type GmailClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

func NewGmailClient(ctx context.Context, cfg config.MailConfig, logger *zap.Logger) *GmailClient {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/gmail.send",
		},
	}
	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	client.Timeout = 30 * time.Second

	return &GmailClient{
		httpClient: client,
		baseURL:    gmailAPIBase,
		logger:     logger,
	}
}

type listResponse struct {
	Messages []struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	} `json:"messages"`
}

type rawMessage struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
	Raw      string `json:"raw"`
}

// Fetch lists recent messages and unpacks up to max of them that carry a
// non-empty text body.
func (g *GmailClient) Fetch(ctx context.Context, max int) ([]Message, error) {
	// List more than needed; some messages have no usable text part.
	listURL := fmt.Sprintf("%s/messages?maxResults=%d", g.baseURL, max*5+5)

	var list listResponse
	if err := g.getJSON(ctx, listURL, &list); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	var out []Message
	for _, ref := range list.Messages {
		if len(out) >= max {
			break
		}

		var raw rawMessage
		getURL := fmt.Sprintf("%s/messages/%s?format=raw", g.baseURL, url.PathEscape(ref.ID))
		if err := g.getJSON(ctx, getURL, &raw); err != nil {
			g.logger.Warn("failed to fetch message", zap.String("id", ref.ID), zap.Error(err))
			continue
		}

		data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(raw.Raw, "="))
		if err != nil {
			g.logger.Warn("failed to decode message", zap.String("id", ref.ID), zap.Error(err))
			continue
		}

		msg, err := parseRFC822(data)
		if err != nil {
			g.logger.Warn("failed to parse message", zap.String("id", ref.ID), zap.Error(err))
			continue
		}
		if strings.TrimSpace(msg.Body) == "" {
			continue
		}

		msg.ID = raw.ID
		msg.ThreadID = raw.ThreadID
		out = append(out, msg)
	}
	return out, nil
}

// Send assembles an RFC822 reply and submits it, returning Gmail's message
// id as the delivery identifier.
func (g *GmailClient) Send(ctx context.Context, out Outgoing) (string, error) {
	var raw bytes.Buffer
	fmt.Fprintf(&raw, "To: %s\r\n", out.To)
	fmt.Fprintf(&raw, "Subject: %s\r\n", out.Subject)
	if out.InReplyTo != "" {
		fmt.Fprintf(&raw, "In-Reply-To: %s\r\n", out.InReplyTo)
		fmt.Fprintf(&raw, "References: %s\r\n", out.InReplyTo)
	}
	raw.WriteString("MIME-Version: 1.0\r\n")
	raw.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(out.Body)

	payload := map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw.Bytes()),
	}
	if out.ThreadID != "" {
		payload["threadId"] = out.ThreadID
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", &SendError{Err: fmt.Errorf("encoding send payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/messages/send", bytes.NewReader(data))
	if err != nil {
		return "", &SendError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &SendError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SendError{Err: fmt.Errorf("gmail returned %d: %s", resp.StatusCode, string(body))}
	}

	var sent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &sent); err != nil {
		return "", &SendError{Err: fmt.Errorf("decoding send response: %w", err)}
	}
	if sent.ID == "" {
		return "", &SendError{Err: fmt.Errorf("gmail returned no message id")}
	}

	g.logger.Info("email sent", zap.String("to", out.To), zap.String("message_id", sent.ID))
	return sent.ID, nil
}

func (g *GmailClient) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gmail returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// parseRFC822 extracts headers and the first text/plain part.
func parseRFC822(data []byte) (Message, error) {
	parsed, err := nmail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		From:              parsed.Header.Get("From"),
		Subject:           parsed.Header.Get("Subject"),
		InternetMessageID: parsed.Header.Get("Message-ID"),
	}

	contentType := parsed.Header.Get("Content-Type")
	body, err := extractTextPart(parsed.Body, contentType,
		parsed.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return Message{}, err
	}
	msg.Body = body
	return msg, nil
}

func extractTextPart(r io.Reader, contentType, encoding string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No or broken Content-Type header; treat the body as plain text.
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			partType, partParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
			if partType == "text/plain" {
				return decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			}
			if strings.HasPrefix(partType, "multipart/") {
				if nested, err := extractTextPart(part, mime.FormatMediaType(partType, partParams), ""); err == nil && nested != "" {
					return nested, nil
				}
			}
		}
	}

	return decodeBody(r, encoding)
}

func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
