package model

import (
	"encoding/json"
	"time"
)

// Document is a single source document ready to be sent to a search engine.
// Body is the raw JSON document, stored as-is by the engine.
type Document struct {
	ID   string
	Date time.Time
	Body json.RawMessage
}

// Size approximates the weight of the document in a bulk request.
func (d Document) Size() int {
	// Action line overhead: {"index":{"_id":"..."}}\n
	return len(d.Body) + len(d.ID) + 24
}

// SourceRef references one source file of a corpus.
type SourceRef struct {
	Path string
	Date time.Time
}
