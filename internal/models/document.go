package models

import "time"

// ProcessedFile is one converted document held by the registry.
// A record is immutable once inserted; only the upload controller creates
// records, and only the registry holds them afterwards.
type ProcessedFile struct {
	ID          string    `json:"id" msgpack:"id"`
	Filename    string    `json:"filename" msgpack:"filename"`
	Content     string    `json:"content" msgpack:"content"`
	ProcessedAt time.Time `json:"processedAt" msgpack:"processedAt"`
}
