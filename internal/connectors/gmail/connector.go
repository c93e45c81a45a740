// Package gmail provides a mailbox connector over the Gmail API.
// Authentication is supplied from outside as an oauth2 token source
// or a credentials file; the OAuth handshake itself is not handled
// here.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.MailboxConnector = (*Connector)(nil)

// defaultPageSize bounds one messages.list page.
const defaultPageSize = 100

// Config holds connection settings for a Gmail mailbox.
type Config struct {
	// User is the mailbox owner, usually the special value "me".
	User string

	// CredentialsFile points at a Google credentials JSON file.
	// Ignored when a TokenSource is supplied programmatically.
	CredentialsFile string

	// TokenSource supplies OAuth tokens directly. Takes precedence
	// over CredentialsFile.
	TokenSource oauth2.TokenSource

	// PageSize bounds one messages.list page.
	PageSize int
}

// ParseConfig extracts Gmail settings from a connection map.
func ParseConfig(m map[string]any) Config {
	return Config{
		User:            config.GetString(m, "user", "me"),
		CredentialsFile: config.GetString(m, "credentials_file", ""),
		PageSize:        config.GetInt(m, "page_size", defaultPageSize),
	}
}

// Connector fetches messages through the Gmail API, rate limited to
// stay under API quotas.
type Connector struct {
	name    string
	cfg     Config
	svc     *gmailapi.Service
	limiter *RateLimiter
}

// New creates a new Gmail connector. The API client is not built
// until Connect is called.
func New(name string, cfg Config) *Connector {
	return &Connector{name: name, cfg: cfg, limiter: NewRateLimiter()}
}

// Name returns the configured instance name.
func (c *Connector) Name() string { return c.name }

// Type returns the connector type identifier.
func (c *Connector) Type() string { return "gmail" }

// Connect builds the Gmail API service.
func (c *Connector) Connect(ctx context.Context) error {
	if c.svc != nil {
		return nil
	}

	var opts []option.ClientOption
	switch {
	case c.cfg.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(c.cfg.TokenSource))
	case c.cfg.CredentialsFile != "":
		opts = append(opts,
			option.WithCredentialsFile(c.cfg.CredentialsFile),
			option.WithScopes(gmailapi.GmailReadonlyScope),
		)
	default:
		return fmt.Errorf("%w: connector %q has no credentials", domain.ErrMissingConfig, c.name)
	}

	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("%w: build gmail service: %v", domain.ErrNotConnected, err)
	}

	c.svc = svc
	return nil
}

// Disconnect drops the API client. Idempotent.
func (c *Connector) Disconnect() error {
	c.svc = nil
	return nil
}

// IsConnected reports handle presence.
func (c *Connector) IsConnected() bool { return c.svc != nil }

func (c *Connector) requireService() error {
	if c.svc == nil {
		return fmt.Errorf("%w: connector %q", domain.ErrNotConnected, c.name)
	}
	return nil
}

// ListMessageIDs resolves up to max message ids matching the Gmail
// query, following page tokens as needed.
func (c *Connector) ListMessageIDs(ctx context.Context, query string, max int) ([]string, error) {
	if err := c.requireService(); err != nil {
		return nil, err
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var ids []string
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.svc.Users.Messages.List(c.cfg.User).
			Q(query).
			MaxResults(int64(pageSize)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
			if max > 0 && len(ids) >= max {
				return ids, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// GetMessage fetches one full message and converts its payload into
// a decoded part tree.
func (c *Connector) GetMessage(ctx context.Context, id string) (*domain.MailMessage, error) {
	if err := c.requireService(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	msg, err := c.svc.Users.Messages.Get(c.cfg.User, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	return &domain.MailMessage{
		ID:      msg.Id,
		Labels:  msg.LabelIds,
		Payload: convertPart(msg.Payload),
	}, nil
}

// GetAttachment fetches and decodes out-of-line attachment bytes.
func (c *Connector) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if err := c.requireService(); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	att, err := c.svc.Users.Messages.Attachments.Get(c.cfg.User, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s/%s: %w", messageID, attachmentID, err)
	}

	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s/%s: %w", messageID, attachmentID, err)
	}
	return data, nil
}

// convertPart maps a Gmail message part onto the domain part tree,
// decoding inline body data as it goes.
func convertPart(part *gmailapi.MessagePart) *domain.MailPart {
	if part == nil {
		return nil
	}

	headers := make(map[string]string, len(part.Headers))
	for _, h := range part.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}

	var body []byte
	var attachmentID string
	if part.Body != nil {
		attachmentID = part.Body.AttachmentId
		if part.Body.Data != "" {
			// Gmail inline bodies are base64url encoded. Decode
			// failures leave the body empty rather than failing the
			// whole message.
			if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
				body = decoded
			}
		}
	}

	converted := &domain.MailPart{
		MIMEType:     part.MimeType,
		Filename:     part.Filename,
		Headers:      headers,
		Body:         body,
		AttachmentID: attachmentID,
	}
	for _, child := range part.Parts {
		converted.Parts = append(converted.Parts, convertPart(child))
	}
	return converted
}
