package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Item is one medicine in the catalog. The dialogue core reads items,
// it never writes them; mutations go through the command executor.
type Item struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Brand                string  `json:"brand,omitempty"`
	Category             string  `json:"category,omitempty"`
	Packets              int     `json:"packets"`
	TabletsPerPacket     int     `json:"tablets_per_packet"`
	PricePerTablet       float64 `json:"price_per_tablet"`
	LowStockThreshold    int     `json:"low_stock_threshold"`
	RequiresPrescription bool    `json:"requires_prescription"`
	Deleted              bool    `json:"deleted"`
}

// TotalTablets is derived, never stored.
func (i Item) TotalTablets() int {
	return i.Packets * i.TabletsPerPacket
}

func (i Item) LowStock() bool {
	return i.LowStockThreshold > 0 && i.TotalTablets() < i.LowStockThreshold
}

// Store is the read-only catalog boundary the dialogue core needs.
type Store interface {
	// ListActive returns all non-deleted items in stable (insertion)
	// order. The fuzzy matcher scans this snapshot.
	ListActive(ctx context.Context) ([]Item, error)

	// GetByID returns a single item, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*Item, error)
}
