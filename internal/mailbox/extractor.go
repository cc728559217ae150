package mailbox

import (
	"context"
	"errors"
)

// AttachmentFetcher resolves an attachment handle to its binary payload.
// *Client satisfies it; ingestion tests substitute a fake.
type AttachmentFetcher interface {
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// ExtractPDF fetches the first PDF attachment of msg, scanning descriptors
// in their given order. The ok result is false when the message has no
// resolvable PDF attachment; that is an expected outcome, not an error.
func ExtractPDF(ctx context.Context, fetcher AttachmentFetcher, msg Message) (data []byte, filename string, ok bool, err error) {
	for _, att := range msg.Attachments {
		if att.MimeType != MimeTypePDF || att.AttachmentID == "" {
			continue
		}
		payload, err := fetcher.GetAttachment(ctx, msg.ID, att.AttachmentID)
		if errors.Is(err, ErrAttachmentNotFound) {
			continue
		}
		if err != nil {
			return nil, "", false, err
		}
		return payload, att.Filename, true, nil
	}
	return nil, "", false, nil
}
