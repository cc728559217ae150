package mailbox

import (
	"regexp"
	"strings"
)

// Filtering criteria for academic mail. These are configuration, not part
// of the classification contract: tuning them does not change the
// algorithm.
var (
	publisherDomains = []string{
		"arxiv.org",
		"researchgate.net",
		"academia.edu",
		"ieee.org",
		"springer.com",
		"elsevier.com",
		"wiley.com",
		"nature.com",
		"sciencedirect.com",
		"cambridge.org",
		"oxfordjournals.org",
	}

	academicSuffixes = []string{".edu", ".ac.uk", ".ac.in", ".ac.jp", ".ac.de"}

	subjectKeywords = []string{
		"research paper",
		"published",
		"preprint",
		"journal",
		"paper",
		"conference",
		"accepted paper",
		"proceedings",
		"arxiv",
		"doi",
	}
)

var senderDomainRe = regexp.MustCompile(`@([\w.-]+)`)

// IsAcademic reports whether a message looks like it carries an academic
// paper: an academic sender, a research-related subject, and a PDF
// attachment. All three must hold. A missing sender or subject fails its
// predicate rather than erroring.
func IsAcademic(msg Message) bool {
	return hasAcademicSender(msg.From) &&
		hasResearchSubject(msg.Subject) &&
		hasPDFAttachment(msg.Attachments)
}

// FilterAcademic returns the academic subsequence of messages, preserving
// their relative order.
func FilterAcademic(messages []Message) []Message {
	var out []Message
	for _, msg := range messages {
		if IsAcademic(msg) {
			out = append(out, msg)
		}
	}
	return out
}

func hasAcademicSender(from string) bool {
	domain := senderDomain(from)
	if domain == "" {
		return false
	}
	for _, d := range publisherDomains {
		if strings.Contains(domain, d) {
			return true
		}
	}
	for _, suffix := range academicSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

func senderDomain(from string) string {
	match := senderDomainRe.FindStringSubmatch(from)
	if match == nil {
		return ""
	}
	return strings.ToLower(match[1])
}

func hasResearchSubject(subject string) bool {
	if subject == "" {
		return false
	}
	lower := strings.ToLower(subject)
	for _, kw := range subjectKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasPDFAttachment(attachments []Attachment) bool {
	for _, att := range attachments {
		if att.MimeType == MimeTypePDF {
			return true
		}
	}
	return false
}
