package ports

import "github.com/ghalamif/AegisPilot/internal/domain"

type QueuedRecord struct {
	ID     WALEntryID
	Record *domain.Record
}

type RecordQueue interface {
	Enqueue(id WALEntryID, r *domain.Record) bool
	DequeueBatch(max int) []QueuedRecord
	Len() int
}
