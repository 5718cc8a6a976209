// internal/models/evidence.go
package models

// DefaultFingerprintLength is the number of leading characters that identify a chunk.
const DefaultFingerprintLength = 100

// EvidenceChunk is one retrieved passage of course content.
type EvidenceChunk struct {
	Content      string  `json:"content"`
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	ModuleName   string  `json:"module_name,omitempty"`
	Timestamp    string  `json:"timestamp,omitempty"`
	CourseName   string  `json:"course_name,omitempty"`
	Score        float64 `json:"score"`
}

// Fingerprint returns the identity used for de-duplication: the first
// DefaultFingerprintLength characters of the content.
func (c EvidenceChunk) Fingerprint() string {
	return FingerprintN(c.Content, DefaultFingerprintLength)
}

// FingerprintN is Fingerprint with an explicit length. Length is counted in
// characters, not bytes, so multi-byte text never splits mid-rune.
func FingerprintN(content string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range content {
		if count == n {
			return content[:i]
		}
		count++
	}
	return content
}

type DocumentCitation struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
}
