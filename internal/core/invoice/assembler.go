package invoice

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoices-tracker/internal/entity"
)

// Categorizer maps an item name to a category label.
type Categorizer interface {
	Categorize(name string) string
}

// IDGenerator returns a fresh unique identifier.
type IDGenerator func() string

type Option func(*Assembler)

// WithIDGenerator replaces the default uuid generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *Assembler) {
		if g != nil {
			a.newID = g
		}
	}
}

// Assembler combines the field and item extractors into one invoice.
type Assembler struct {
	categorizer Categorizer
	newID       IDGenerator
}

func NewAssembler(c Categorizer, opts ...Option) *Assembler {
	a := &Assembler{categorizer: c, newID: uuid.NewString}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds an invoice from raw text and the content hash of its source
// file. It never fails; missing fields carry their sentinels.
func (a *Assembler) Assemble(text, contentHash string) entity.Invoice {
	inv := entity.Invoice{
		ID:          a.newID(),
		InvoiceNo:   InvoiceNumber(text),
		Vendor:      Vendor(text),
		Date:        Date(text),
		TotalAmount: Total(text),
		ContentHash: contentHash,
	}
	lines := Items(text)
	inv.Items = make([]entity.Item, 0, len(lines))
	for _, li := range lines {
		inv.Items = append(inv.Items, entity.Item{
			ID:       a.newID(),
			Name:     li.Name,
			Price:    li.Price,
			Category: a.categorizer.Categorize(li.Name),
		})
	}
	return inv
}
