package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

// gmailStub serves just enough of the Gmail REST surface for the client.
type gmailStub struct {
	listCalls   int
	pageSize    int
	totalPages  int
	messages    map[string]any
	attachments map[string]any
	attachCode  int
}

func (g *gmailStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.Contains(path, "/attachments/"):
			attachmentID := path[strings.LastIndex(path, "/")+1:]
			body, ok := g.attachments[attachmentID]
			if !ok {
				code := g.attachCode
				if code == 0 {
					code = http.StatusNotFound
				}
				w.WriteHeader(code)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"not found"}}`, code)
				return
			}
			writeJSON(w, body)
		case strings.HasSuffix(path, "/messages"):
			g.listCalls++
			writeJSON(w, g.listPage())
		default:
			messageID := path[strings.LastIndex(path, "/")+1:]
			body, ok := g.messages[messageID]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":{"code":404,"message":"not found"}}`)
				return
			}
			writeJSON(w, body)
		}
	})
}

func (g *gmailStub) listPage() map[string]any {
	page := g.listCalls
	msgs := make([]map[string]string, 0, g.pageSize)
	for i := 0; i < g.pageSize; i++ {
		msgs = append(msgs, map[string]string{"id": fmt.Sprintf("m%d", (page-1)*g.pageSize+i+1)})
	}
	out := map[string]any{"messages": msgs}
	if g.totalPages <= 0 || page < g.totalPages {
		out["nextPageToken"] = fmt.Sprintf("page-%d", page+1)
	}
	return out
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newStubClient(t *testing.T, stub *gmailStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), "test-token", option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestListMessageIDsPaginationTerminates(t *testing.T) {
	// Pages of 10 forever; 25 requested must mean 3 fetches, 25 ids.
	stub := &gmailStub{pageSize: 10}
	client := newStubClient(t, stub)

	ids, err := client.ListMessageIDs(context.Background(), "in:inbox", 25)
	if err != nil {
		t.Fatalf("ListMessageIDs: %v", err)
	}
	if len(ids) != 25 {
		t.Fatalf("expected exactly 25 ids, got %d", len(ids))
	}
	if stub.listCalls != 3 {
		t.Fatalf("expected exactly 3 page fetches, got %d", stub.listCalls)
	}
	if ids[0] != "m1" || ids[24] != "m25" {
		t.Fatalf("unexpected id boundaries: %s..%s", ids[0], ids[24])
	}
}

func TestListMessageIDsStopsWithoutContinuationToken(t *testing.T) {
	stub := &gmailStub{pageSize: 4, totalPages: 1}
	client := newStubClient(t, stub)

	ids, err := client.ListMessageIDs(context.Background(), "", 30)
	if err != nil {
		t.Fatalf("ListMessageIDs: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 ids, got %d", len(ids))
	}
	if stub.listCalls != 1 {
		t.Fatalf("expected 1 page fetch, got %d", stub.listCalls)
	}
}

func TestGetMessageFlattensHeadersAndAttachments(t *testing.T) {
	stub := &gmailStub{
		pageSize: 1,
		messages: map[string]any{
			"m1": map[string]any{
				"id": "m1",
				"payload": map[string]any{
					"headers": []map[string]string{
						{"name": "From", "value": "arXiv <no-reply@arxiv.org>"},
						{"name": "Subject", "value": "New preprint"},
					},
					"parts": []map[string]any{
						{
							"filename": "",
							"mimeType": "text/plain",
							"body":     map[string]any{"data": "aGVsbG8="},
						},
						{
							"filename": "a.pdf",
							"mimeType": "application/pdf",
							"body":     map[string]any{"attachmentId": "att-1", "size": 3},
						},
					},
				},
			},
		},
	}
	client := newStubClient(t, stub)

	msg, err := client.GetMessage(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if msg.From != "arXiv <no-reply@arxiv.org>" {
		t.Fatalf("unexpected From: %q", msg.From)
	}
	if msg.Subject != "New preprint" {
		t.Fatalf("unexpected Subject: %q", msg.Subject)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected 1 attachment descriptor, got %d", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "a.pdf" || att.MimeType != MimeTypePDF || att.AttachmentID != "att-1" {
		t.Fatalf("unexpected attachment: %+v", att)
	}
}

func TestGetAttachmentDecodesPayload(t *testing.T) {
	raw := []byte("%PDF-1.4 fake body")
	stub := &gmailStub{
		pageSize: 1,
		attachments: map[string]any{
			"att-1": map[string]any{
				"data": base64.URLEncoding.EncodeToString(raw),
				"size": len(raw),
			},
		},
	}
	client := newStubClient(t, stub)

	data, err := client.GetAttachment(context.Background(), "m1", "att-1")
	if err != nil {
		t.Fatalf("GetAttachment: %v", err)
	}
	if string(data) != string(raw) {
		t.Fatalf("decoded payload mismatch: %q", data)
	}
}

func TestGetAttachmentMissingHandle(t *testing.T) {
	stub := &gmailStub{pageSize: 1}
	client := newStubClient(t, stub)

	_, err := client.GetAttachment(context.Background(), "m1", "gone")
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestGetAttachmentProviderError(t *testing.T) {
	stub := &gmailStub{pageSize: 1, attachCode: http.StatusInternalServerError}
	client := newStubClient(t, stub)

	_, err := client.GetAttachment(context.Background(), "m1", "att-x")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", perr.StatusCode)
	}
}
