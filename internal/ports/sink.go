package ports

import "github.com/ghalamif/AegisPilot/internal/domain"

type Sink interface {
	WriteBatch(records []*domain.Record) error
	Name() string
}
