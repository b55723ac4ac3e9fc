// Package register is one checkout counter: the sale in progress, the product
// search box and the receipt printer behind a single handle.
package register

import (
	"context"
	"fmt"
	"sync"

	"github.com/tokosehat/kasir/internal/cart"
	"github.com/tokosehat/kasir/internal/catalog"
	"github.com/tokosehat/kasir/internal/checkout"
	"github.com/tokosehat/kasir/internal/receipt"
	"github.com/tokosehat/kasir/internal/search"
	"github.com/tokosehat/kasir/internal/transactions"
	pkgerrors "github.com/tokosehat/kasir/pkg/errors"
)

// SearchView is the latest published product search.
type SearchView struct {
	Query    string            `json:"query"`
	Seq      uint64            `json:"seq"`
	Products []catalog.Product `json:"products"`
	Error    string            `json:"error,omitempty"`
}

// View is everything the register screen renders.
type View struct {
	checkout.Snapshot
	Search SearchView `json:"search"`
}

type Register struct {
	orch     *checkout.Orchestrator
	debounce *search.Debouncer[catalog.Product]
	renderer *receipt.Renderer

	resultsMu sync.RWMutex
	results   SearchView
}

// New wires the search box to lookup. Published results are kept for View and
// for adding products by id.
func New(orch *checkout.Orchestrator, lookup search.LookupFunc[catalog.Product], renderer *receipt.Renderer, opts ...search.Option[catalog.Product]) (*Register, error) {
	if orch == nil {
		return nil, fmt.Errorf("checkout orchestrator required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("receipt renderer required")
	}
	r := &Register{
		orch:     orch,
		renderer: renderer,
		results:  SearchView{Products: []catalog.Product{}},
	}
	r.debounce = search.New(lookup, r.publish, opts...)
	return r, nil
}

// CatalogLookup adapts a catalog service to the search box.
func CatalogLookup(svc catalog.Service, limit int) search.LookupFunc[catalog.Product] {
	return func(ctx context.Context, query string) ([]catalog.Product, error) {
		result, err := svc.SearchProducts(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return result.Products, nil
	}
}

func (r *Register) publish(res search.Result[catalog.Product]) {
	view := SearchView{Query: res.Query, Seq: res.Seq, Products: res.Items}
	if res.Err != nil {
		view.Error = pkgerrors.MessageOr(res.Err, "Gagal mencari produk")
	}
	r.resultsMu.Lock()
	r.results = view
	r.resultsMu.Unlock()
}

// Search feeds a keystroke into the debounced search box.
func (r *Register) Search(query string) {
	r.debounce.Update(query)
}

func (r *Register) SearchResults() SearchView {
	r.resultsMu.RLock()
	defer r.resultsMu.RUnlock()
	view := r.results
	view.Products = make([]catalog.Product, len(r.results.Products))
	copy(view.Products, r.results.Products)
	return view
}

// AddFromSearch adds the product with id from the latest search results.
func (r *Register) AddFromSearch(productID int64) (cart.Line, error) {
	r.resultsMu.RLock()
	var found *catalog.Product
	for i := range r.results.Products {
		if r.results.Products[i].ID == productID {
			p := r.results.Products[i]
			found = &p
			break
		}
	}
	r.resultsMu.RUnlock()
	if found == nil {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeNotFound, "produk tidak ada di hasil pencarian")
	}
	return r.orch.AddItem(*found)
}

func (r *Register) AddProduct(product catalog.Product) (cart.Line, error) {
	if product.ID <= 0 {
		return cart.Line{}, pkgerrors.New(pkgerrors.CodeValidation, "id produk tidak valid")
	}
	return r.orch.AddItem(product)
}

func (r *Register) SetQuantity(productID, quantity int64) (*cart.Warning, error) {
	return r.orch.SetQuantity(productID, quantity)
}

func (r *Register) RemoveItem(productID int64) error {
	return r.orch.RemoveItem(productID)
}

func (r *Register) SetTendered(raw string) (checkout.Payment, error) {
	return r.orch.SetTendered(raw)
}

// Checkout submits the sale. On success the search box is cleared as well.
func (r *Register) Checkout(ctx context.Context) (*transactions.Transaction, error) {
	tx, err := r.orch.Submit(ctx)
	if err != nil {
		return nil, err
	}
	r.debounce.Update("")
	return tx, nil
}

func (r *Register) Dismiss() error {
	return r.orch.Dismiss()
}

func (r *Register) Acknowledge() error {
	return r.orch.Acknowledge()
}

func (r *Register) Reset() error {
	if err := r.orch.Reset(); err != nil {
		return err
	}
	r.debounce.Update("")
	return nil
}

func (r *Register) View() View {
	return View{Snapshot: r.orch.Snapshot(), Search: r.SearchResults()}
}

// ReceiptText renders the receipt on screen, or the last one for a reprint.
func (r *Register) ReceiptText() (string, error) {
	if snap := r.orch.Snapshot(); snap.Receipt != nil {
		return r.renderer.Render(*snap.Receipt), nil
	}
	if tx, ok := r.orch.LastReceipt(); ok {
		return r.renderer.Render(tx), nil
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "belum ada struk")
}

// ReceiptFor renders any transaction, e.g. one loaded from history.
func (r *Register) ReceiptFor(tx transactions.Transaction) string {
	return r.renderer.Render(tx)
}

func (r *Register) Close() {
	r.debounce.Close()
}
