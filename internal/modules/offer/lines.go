package offer

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
)

const maxLines = 100

// Line is either a CatalogLine, which draws on a vendor product and its
// stock, or a CustomLine, which is free text and never touches inventory.
type Line interface {
	base() lineBase
}

type lineBase struct {
	Title       string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (b lineBase) base() lineBase { return b }

type CatalogLine struct {
	lineBase
	ProductID uuid.UUID
}

type CustomLine struct {
	lineBase
}

// parseLines validates the request items and classifies them.
func parseLines(items []ItemInput) ([]Line, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("an offer needs at least one item")
	}
	if len(items) > maxLines {
		return nil, apperr.Validation("an offer can have at most %d items", maxLines)
	}
	lines := make([]Line, 0, len(items))
	for i, in := range items {
		if in.Quantity < 1 {
			return nil, apperr.Validation("item %d: quantity must be at least 1", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, apperr.Validation("item %d: unit_price must not be negative", i+1)
		}
		b := lineBase{
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice.Round(2),
		}
		if in.ProductID != nil {
			lines = append(lines, CatalogLine{lineBase: b, ProductID: *in.ProductID})
			continue
		}
		if b.Title == "" {
			return nil, apperr.Validation("item %d: title is required", i+1)
		}
		lines = append(lines, CustomLine{lineBase: b})
	}
	return lines, nil
}

// demands returns the aggregated stock demand of the catalogue lines.
func demands(lines []Line) []inventory.Demand {
	var out []inventory.Demand
	for _, l := range lines {
		if c, ok := l.(CatalogLine); ok {
			out = append(out, inventory.Demand{ProductID: c.ProductID, Quantity: c.Quantity})
		}
	}
	return inventory.Aggregate(out)
}

// buildItems turns lines into offer items and sums the total. Catalogue lines
// without a title take the product's.
func buildItems(offerID uuid.UUID, lines []Line, products map[uuid.UUID]*inventory.Product) ([]*Item, decimal.Decimal) {
	items := make([]*Item, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		b := l.base()
		item := &Item{
			ID:          uuid.New(),
			OfferID:     offerID,
			Title:       b.Title,
			Description: b.Description,
			Quantity:    b.Quantity,
			UnitPrice:   b.UnitPrice,
			LineTotal:   b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Quantity))).Round(2),
			SortOrder:   i,
		}
		if c, ok := l.(CatalogLine); ok {
			pid := c.ProductID
			item.ProductID = &pid
			if item.Title == "" {
				if p := products[pid]; p != nil {
					item.Title = p.Title
				}
			}
		}
		total = total.Add(item.LineTotal)
		items = append(items, item)
	}
	return items, total
}
