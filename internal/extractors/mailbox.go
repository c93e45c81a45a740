package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure Mailbox implements the interface.
var _ driven.Extractor = (*Mailbox)(nil)

// defaultMessageLimit bounds one mailbox run when batch_size is unset.
const defaultMessageLimit = 100

// Mailbox extracts messages from a mailbox connector. Each message
// becomes one document with normalised headers, the first readable
// body part and its attachments persisted through the stage store.
// A failing message is skipped and reported; the rest still run.
type Mailbox struct {
	name  string
	cfg   config.ExtractorConfig
	conn  driven.MailboxConnector
	stage driven.StageStore
}

// NewMailbox creates a message extractor.
func NewMailbox(name string, cfg config.ExtractorConfig, conn driven.MailboxConnector, stage driven.StageStore) *Mailbox {
	return &Mailbox{name: name, cfg: cfg, conn: conn, stage: stage}
}

// Name returns the configured source name.
func (e *Mailbox) Name() string { return e.name }

// searchQuery combines configured labels and free-form query into one
// provider query string.
func (e *Mailbox) searchQuery() string {
	var parts []string
	for _, label := range e.cfg.Labels {
		parts = append(parts, "label:"+label)
	}
	if e.cfg.Query != "" {
		parts = append(parts, e.cfg.Query)
	}
	return strings.Join(parts, " ")
}

// Extract produces one document per matching message.
func (e *Mailbox) Extract(ctx context.Context) (<-chan domain.Document, <-chan error) {
	limit := e.cfg.BatchSize
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	return run(ctx, e.name, func(ctx context.Context, emit func(domain.Document) bool, report *domain.ExtractionReport) error {
		ids, err := e.conn.ListMessageIDs(ctx, e.searchQuery(), limit)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}

		for _, id := range ids {
			doc, err := e.extractMessage(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("extractor %s: skipping message %s: %v", e.name, id, err)
				skip(report, id, err)
				continue
			}
			if !emit(*doc) {
				return ctx.Err()
			}
		}
		return nil
	})
}

func (e *Mailbox) extractMessage(ctx context.Context, id string) (*domain.Document, error) {
	msg, err := e.conn.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{"labels": msg.Labels}
	if msg.Payload != nil {
		for _, key := range []string{"subject", "from", "to", "date"} {
			if v, ok := msg.Payload.Headers[key]; ok {
				metadata[key] = v
			}
		}
	}

	attachments, err := e.saveAttachments(ctx, msg)
	if err != nil {
		return nil, err
	}

	return &domain.Document{
		Source:      domain.SourceMail,
		ID:          msg.ID,
		Metadata:    metadata,
		Body:        messageBody(msg.Payload),
		Attachments: attachments,
	}, nil
}

// messageBody returns the first text/html or text/plain part with a
// decoded body, walking the part tree in document order with an
// explicit stack.
func messageBody(root *domain.MailPart) string {
	if root == nil {
		return ""
	}

	stack := []*domain.MailPart{root}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(part.Body) > 0 {
			mime := part.MIMEType
			if strings.Contains(mime, "text/html") || strings.Contains(mime, "text/plain") {
				return string(part.Body)
			}
		}

		// Push children in reverse so the leftmost part is visited next.
		for i := len(part.Parts) - 1; i >= 0; i-- {
			stack = append(stack, part.Parts[i])
		}
	}
	return ""
}

// saveAttachments persists every named attachment part and returns
// references to the stored files.
func (e *Mailbox) saveAttachments(ctx context.Context, msg *domain.MailMessage) ([]domain.AttachmentRef, error) {
	var refs []domain.AttachmentRef

	stack := []*domain.MailPart{msg.Payload}
	for len(stack) > 0 {
		part := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if part == nil {
			continue
		}

		if part.Filename != "" {
			data := part.Body
			if len(data) == 0 && part.AttachmentID != "" {
				fetched, err := e.conn.GetAttachment(ctx, msg.ID, part.AttachmentID)
				if err != nil {
					return nil, fmt.Errorf("fetch attachment %s: %w", part.Filename, err)
				}
				data = fetched
			}
			if len(data) > 0 {
				stored, err := e.stage.SaveAttachment(msg.ID, part.Filename, data)
				if err != nil {
					return nil, fmt.Errorf("save attachment %s: %w", part.Filename, err)
				}
				refs = append(refs, domain.AttachmentRef{
					Filename:   part.Filename,
					StoredPath: stored,
					MIMEType:   part.MIMEType,
				})
			}
		}

		for i := len(part.Parts) - 1; i >= 0; i-- {
			stack = append(stack, part.Parts[i])
		}
	}
	return refs, nil
}
