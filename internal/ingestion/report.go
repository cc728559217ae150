package ingestion

import "research-backend/internal/papers"

// Report summarizes one ingestion run over a user's mailbox.
type Report struct {
	Processed int                    `json:"processed"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
	Papers    []papers.PaperResponse `json:"papers"`
}
