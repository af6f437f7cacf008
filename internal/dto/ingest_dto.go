package dto

// PublishIndexDocumentMessage asks the ingest consumer to (re)index one
// knowledge-base document.
type PublishIndexDocumentMessage struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}
