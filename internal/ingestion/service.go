package ingestion

import (
	"context"

	"research-backend/internal/credentials"
	"research-backend/internal/mailbox"
	"research-backend/internal/papers"
	"research-backend/internal/shared/metrics"
	"research-backend/internal/shared/telemetry"
)

// MailboxClient is the slice of the mailbox client the orchestrator needs.
// *mailbox.Client satisfies it; tests substitute a fake.
type MailboxClient interface {
	ListMessageIDs(ctx context.Context, query string, maxResults int) ([]string, error)
	GetMessage(ctx context.Context, id string) (mailbox.Message, error)
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// MailboxFactory builds a mailbox client bound to an access token.
type MailboxFactory func(ctx context.Context, accessToken string) (MailboxClient, error)

// NewGmailFactory returns the production factory backed by the Gmail API.
func NewGmailFactory() MailboxFactory {
	return func(ctx context.Context, accessToken string) (MailboxClient, error) {
		return mailbox.New(ctx, accessToken)
	}
}

// Service orchestrates one ingestion run: resolve credentials, list the
// mailbox, classify, extract PDFs, and store them as papers.
type Service struct {
	Credentials *credentials.Manager
	Papers      *papers.Service
	NewMailbox  MailboxFactory
	Query       string
	MaxResults  int
}

// Run ingests academic papers from the user's mailbox. Credential and
// listing failures abort the run; a failure on an individual message is
// counted and the run continues.
func (s *Service) Run(ctx context.Context, userID string, maxResults int) (Report, error) {
	started := metrics.NowMillis()
	metrics.IncIngestRunStarted()

	report := Report{Papers: []papers.PaperResponse{}}

	cred, err := s.Credentials.Resolve(ctx, userID)
	if err != nil {
		metrics.IncIngestRunFailed()
		return report, err
	}

	client, err := s.NewMailbox(ctx, cred.AccessToken)
	if err != nil {
		metrics.IncIngestRunFailed()
		return report, err
	}

	query := s.Query
	if query == "" {
		query = mailbox.DefaultQuery
	}
	if maxResults <= 0 {
		maxResults = s.MaxResults
	}
	if maxResults <= 0 {
		maxResults = mailbox.DefaultMaxResults
	}

	ids, err := client.ListMessageIDs(ctx, query, maxResults)
	if err != nil {
		metrics.IncIngestRunFailed()
		return report, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			metrics.IncIngestRunFailed()
			return report, err
		}

		msg, err := client.GetMessage(ctx, id)
		if err != nil {
			report.Failed++
			telemetry.Error("ingest.message_failed", map[string]any{
				"user_id":    userID,
				"message_id": id,
				"stage":      "fetch",
				"err":        err.Error(),
			})
			continue
		}

		if !mailbox.IsAcademic(msg) {
			report.Skipped++
			continue
		}

		data, filename, ok, err := mailbox.ExtractPDF(ctx, client, msg)
		if err != nil {
			report.Failed++
			telemetry.Error("ingest.message_failed", map[string]any{
				"user_id":    userID,
				"message_id": id,
				"stage":      "attachment",
				"err":        err.Error(),
			})
			continue
		}
		if !ok {
			report.Skipped++
			continue
		}

		paper, created, err := s.Papers.StoreIfAbsent(ctx, userID, data, filename)
		if err != nil {
			report.Failed++
			telemetry.Error("ingest.message_failed", map[string]any{
				"user_id":    userID,
				"message_id": id,
				"stage":      "store",
				"err":        err.Error(),
			})
			continue
		}

		report.Processed++
		report.Papers = append(report.Papers, papers.ToResponse(paper))
		if created {
			telemetry.Info("ingest.paper_stored", map[string]any{
				"user_id":    userID,
				"message_id": id,
				"paper_id":   paper.ID,
			})
		}
	}

	metrics.IncIngestRunCompleted()
	metrics.IncPapersStored(report.Processed)
	metrics.IncMessagesFailed(report.Failed)
	metrics.ObserveIngestRunDurationMs(metrics.NowMillis() - started)

	telemetry.Info("ingest.run_completed", map[string]any{
		"user_id":   userID,
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	})
	return report, nil
}
