package papers

import "time"

// PaperResponse is the outward-facing representation of a paper.
type PaperResponse struct {
	PaperID   string    `json:"paperId"`
	Title     string    `json:"title"`
	PDFURL    string    `json:"pdfUrl"`
	Shared    bool      `json:"shared"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts a Paper to its API shape.
func ToResponse(paper Paper) PaperResponse {
	return PaperResponse{
		PaperID:   paper.ID,
		Title:     paper.Title,
		PDFURL:    paper.PDFURL,
		Shared:    paper.Shared,
		OwnerID:   paper.OwnerID,
		CreatedAt: paper.CreatedAt,
	}
}
