/*
Package game
File: catalog.go
Description:
    The Shop Catalog: the read-only, ordered list of producer types.
    Declaration order is preserved because it drives shop listing order
    and tie-breaking in the ring allocator.
*/

package game

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownProducer is returned when an id does not name a catalog entry.
	ErrUnknownProducer = errors.New("unknown producer")

	// ErrInvalidCatalog is returned when a catalog definition violates its invariants.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Catalog is the immutable set of purchasable producers.
type Catalog struct {
	producers []ProducerType
	index     map[string]int
}

// NewCatalog validates the producer list and builds the lookup index.
// IDs must be unique and non-empty, prices positive, rates non-negative.
func NewCatalog(producers []ProducerType) (*Catalog, error) {
	if len(producers) == 0 {
		return nil, fmt.Errorf("%w: no producers defined", ErrInvalidCatalog)
	}

	c := &Catalog{
		producers: make([]ProducerType, len(producers)),
		index:     make(map[string]int, len(producers)),
	}
	copy(c.producers, producers)

	for i, p := range c.producers {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: producer %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate producer id %q", ErrInvalidCatalog, p.ID)
		}
		if p.BasePrice <= 0 {
			return nil, fmt.Errorf("%w: producer %q price must be positive", ErrInvalidCatalog, p.ID)
		}
		if p.ProductionRate < 0 || math.IsNaN(p.ProductionRate) || math.IsInf(p.ProductionRate, 0) {
			return nil, fmt.Errorf("%w: producer %q rate must be a non-negative number", ErrInvalidCatalog, p.ID)
		}
		c.index[p.ID] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog for static definitions known to be valid.
// Test helper; production code loads definitions through NewCatalog.
func MustCatalog(producers []ProducerType) *Catalog {
	c, err := NewCatalog(producers)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the producer type for id.
func (c *Catalog) Lookup(id string) (ProducerType, bool) {
	i, ok := c.index[id]
	if !ok {
		return ProducerType{}, false
	}
	return c.producers[i], true
}

// Producers returns a copy of the catalog in declaration order.
func (c *Catalog) Producers() []ProducerType {
	out := make([]ProducerType, len(c.producers))
	copy(out, c.producers)
	return out
}

// IDs returns the producer ids in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.producers))
	for i, p := range c.producers {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of producer types.
func (c *Catalog) Len() int {
	return len(c.producers)
}
