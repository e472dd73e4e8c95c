package model

import "time"

// FetchMeta describes how a source page was obtained
type FetchMeta struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	StatusCode   int       `json:"status_code"`
	ContentType  string    `json:"content_type,omitempty"`
	Charset      string    `json:"charset,omitempty"` // declared or sniffed source encoding
	LastModified string    `json:"last_modified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	FromCache    bool      `json:"from_cache"`
}
