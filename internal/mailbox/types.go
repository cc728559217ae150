package mailbox

// Attachment describes one attachment on a remote message. AttachmentID
// is the opaque handle the provider resolves to the binary payload.
type Attachment struct {
	Filename     string
	MimeType     string
	AttachmentID string
	Size         int64
}

// Message is the transient view of a remote mail message. It is fetched
// fresh per ingestion run and never persisted.
type Message struct {
	ID          string
	From        string
	Subject     string
	Attachments []Attachment
}
