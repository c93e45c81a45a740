package domain

// SourceType identifies the kind of system a document was extracted from.
type SourceType string

const (
	// SourceRelational marks documents built from relational rows.
	SourceRelational SourceType = "relational"

	// SourceMail marks documents built from mailbox messages.
	SourceMail SourceType = "mail"

	// SourceSearch marks documents pulled from a search index.
	SourceSearch SourceType = "search"
)

// Document is the normalised record an extractor produces.
// It is immutable once written to the intermediate store.
type Document struct {
	// Source identifies the kind of system the document came from.
	Source SourceType `json:"source"`

	// ID is unique within a source for one extraction run.
	ID string `json:"id"`

	// Metadata holds source-specific fields. Relational rows carry the
	// full row here; mail messages carry normalised headers and labels.
	Metadata map[string]any `json:"metadata"`

	// Body is the full text content, empty for purely tabular records.
	Body string `json:"body"`

	// Attachments references binary parts persisted outside the record.
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// AttachmentRef points at attachment bytes stored on disk.
// Content lives at StoredPath, never inside the record itself.
type AttachmentRef struct {
	// Filename is the attachment's original name.
	Filename string `json:"filename"`

	// StoredPath is where the decoded bytes were written, relative to
	// the data directory.
	StoredPath string `json:"stored_path"`

	// MIMEType is the declared content type.
	MIMEType string `json:"mime_type"`
}

// MailMessage is a fetched mailbox message with its full part tree.
// Part bodies are already decoded from the transport encoding.
type MailMessage struct {
	// ID is the provider's message identifier.
	ID string

	// Labels are the provider's label/folder names for the message.
	Labels []string

	// Payload is the root of the (possibly nested multipart) body.
	Payload *MailPart
}

// MailPart is one node of a message's multipart structure.
type MailPart struct {
	// MIMEType is the part's content type (e.g. "text/plain").
	MIMEType string

	// Filename is non-empty for attachment parts.
	Filename string

	// Headers holds the part headers, keyed by lower-cased name.
	Headers map[string]string

	// Body is the decoded part content. Empty for parts whose content
	// must be fetched separately via AttachmentID.
	Body []byte

	// AttachmentID references out-of-line attachment content.
	AttachmentID string

	// Parts are the nested child parts.
	Parts []*MailPart
}
