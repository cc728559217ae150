package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultQuery scopes listing to the inbox.
	DefaultQuery = "in:inbox"
	// DefaultMaxResults caps one ingestion run's listing.
	DefaultMaxResults = 30
	// MimeTypePDF is the attachment content type we extract.
	MimeTypePDF = "application/pdf"

	// maxAttachmentSize caps attachment downloads at 25MB.
	maxAttachmentSize = 25 * 1024 * 1024
)

// Client reads one user's mailbox through the Gmail REST API. It is
// constructed per ingestion run from a resolved credential and holds no
// state beyond the authenticated service.
type Client struct {
	svc *gmail.UsersService
}

// New builds a mailbox client authenticated with the given access token.
// Extra options let tests point the client at a stub server.
func New(ctx context.Context, accessToken string, extra ...option.ClientOption) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// ListMessageIDs lists message identifiers matching query, following
// continuation tokens until maxResults identifiers are accumulated or the
// provider reports no further page. The result holds at most maxResults
// identifiers.
func (c *Client) ListMessageIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	if query == "" {
		query = DefaultQuery
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var ids []string
	pageToken := ""
	for {
		call := c.svc.Messages.List("me").Q(query).MaxResults(int64(maxResults)).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, wrapProviderErr("list messages", err)
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if len(ids) >= maxResults || res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// GetMessage fetches full header and attachment metadata for one message.
func (c *Client) GetMessage(ctx context.Context, id string) (Message, error) {
	msg, err := c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return Message{}, wrapProviderErr("get message", err)
	}

	out := Message{ID: msg.Id}
	if msg.Payload == nil {
		return out, nil
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			out.From = h.Value
		case "Subject":
			out.Subject = h.Value
		}
	}

	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			out.Attachments = append(out.Attachments, Attachment{
				Filename:     part.Filename,
				MimeType:     part.MimeType,
				AttachmentID: part.Body.AttachmentId,
				Size:         part.Body.Size,
			})
		}
	})
	return out, nil
}

// GetAttachment fetches and decodes one attachment's binary payload.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" || attachmentID == "" {
		return nil, ErrAttachmentNotFound
	}

	att, err := c.svc.Messages.Attachments.Get("me", messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, ErrAttachmentNotFound
		}
		return nil, wrapProviderErr("get attachment", err)
	}

	if att.Size > maxAttachmentSize {
		return nil, fmt.Errorf("attachment size %d exceeds maximum %d", att.Size, maxAttachmentSize)
	}

	// Gmail returns RFC 4648 base64url payloads.
	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			return nil, fmt.Errorf("decode attachment data: %w", err)
		}
	}
	return data, nil
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, child := range part.Parts {
		walkParts(child, fn)
	}
}
