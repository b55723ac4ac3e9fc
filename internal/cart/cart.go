// Package cart holds the in-progress sale. A Cart keeps at most one line per
// product and recomputes each line's subtotal on every mutation; the total is
// always derived from the lines. A Cart is not safe for concurrent use; the
// register serializes access to it.
package cart

import (
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/enums"
)

// Line is one product's presence in the sale.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int64           `json:"quantity"`
	Subtotal int64           `json:"subtotal"`
}

// UnitPrice is the snapshot sale price.
func (l Line) UnitPrice() int64 {
	return l.Product.Harga.Int64()
}

// Warning is an advisory raised when a quantity goes beyond the stock known at
// search time. The backend stays authoritative, so warnings never block a sale.
type Warning struct {
	ProductID int64                 `json:"product_id"`
	Type      enums.CartWarningType `json:"type"`
	Requested int64                 `json:"requested"`
	Available int64                 `json:"available"`
}

// Cart is the in-progress sale: at most one line per product, in the order added.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of product in the cart, merging into an existing line.
func (c *Cart) Add(product catalog.Product) Line {
	if idx := c.indexOf(product.ID); idx >= 0 {
		c.lines[idx].Quantity++
		c.lines[idx].recompute()
		return c.lines[idx]
	}
	line := Line{Product: product, Quantity: 1}
	line.recompute()
	c.lines = append(c.lines, line)
	return line
}

// SetQuantity sets a line's quantity. A quantity of zero or less removes the
// line. Unknown products are ignored.
func (c *Cart) SetQuantity(productID, quantity int64) *Warning {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return nil
	}
	c.lines[idx].Quantity = quantity
	c.lines[idx].recompute()
	return c.lines[idx].warning()
}

// Remove deletes the product's line. It reports whether a line was removed.
func (c *Cart) Remove(productID int64) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// Total sums the line subtotals.
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.Subtotal
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line looks up the line for productID.
func (c *Cart) Line(productID int64) (Line, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return Line{}, false
	}
	return c.lines[idx], true
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// Warnings lists stock advisories for every line.
func (c *Cart) Warnings() []Warning {
	var out []Warning
	for _, line := range c.lines {
		if w := line.warning(); w != nil {
			out = append(out, *w)
		}
	}
	return out
}

// SubmissionItems returns the (product, quantity) pairs to submit, in cart order.
func (c *Cart) SubmissionItems() []transactions.LineItem {
	items := make([]transactions.LineItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, transactions.LineItem{ProdukID: line.Product.ID, Jumlah: line.Quantity})
	}
	return items
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (l *Line) recompute() {
	l.Subtotal = l.Quantity * l.UnitPrice()
}

func (l Line) warning() *Warning {
	if l.Quantity <= l.Product.Stok {
		return nil
	}
	kind := enums.CartWarningExceedsStock
	if l.Product.Stok <= 0 {
		kind = enums.CartWarningOutOfStock
	}
	return &Warning{
		ProductID: l.Product.ID,
		Type:      kind,
		Requested: l.Quantity,
		Available: l.Product.Stok,
	}
}
