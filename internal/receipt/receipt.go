// Package receipt lays out confirmed transactions for a thermal printer.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tokosehat/kasir/internal/transactions"
	"github.com/tokosehat/kasir/pkg/config"
	"github.com/tokosehat/kasir/pkg/money"
)

const (
	defaultWidth = 32
	thankYou     = "TERIMA KASIH"
)

var shortMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// Renderer turns a transaction into fixed-width receipt text.
type Renderer struct {
	store config.StoreConfig
	width int
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Renderer)

// WithClock overrides the clock used for the printed-at line.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func New(store config.StoreConfig, opts ...Option) *Renderer {
	r := &Renderer{
		store: store,
		width: store.ReceiptWidth,
		loc:   store.Location(),
		now:   time.Now,
	}
	if r.width <= 0 {
		r.width = defaultWidth
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Width() int {
	return r.width
}

// Render produces the receipt. The output is a pure function of the
// transaction, the store profile and the clock.
func (r *Renderer) Render(tx transactions.Transaction) string {
	var b strings.Builder
	rule := strings.Repeat("-", r.width)

	r.center(&b, r.store.Name)
	r.center(&b, r.store.Address)
	if phone := strings.TrimSpace(r.store.Phone); phone != "" {
		r.center(&b, "Telp: "+phone)
	}
	b.WriteString(rule + "\n")

	date, clock := "-", "-"
	if at, ok := tx.Time(r.loc); ok {
		date = formatDate(at)
		clock = at.Format("15:04")
	}
	r.pair(&b, "No Nota", orDash(tx.NoNota))
	r.pair(&b, "Tanggal", date)
	r.pair(&b, "Waktu", clock)
	r.pair(&b, "Kasir", tx.CashierName())
	b.WriteString(rule + "\n")

	for _, item := range tx.Items {
		for _, line := range wrap(item.ProductName(), r.width) {
			b.WriteString(line + "\n")
		}
		qty := fmt.Sprintf("%d x %s", item.Jumlah, money.FormatRupiah(item.UnitPrice().Int64()))
		r.pair(&b, qty, money.FormatRupiah(item.Subtotal.Int64()))
	}
	b.WriteString(rule + "\n")

	r.pair(&b, "TOTAL", money.FormatRupiah(tx.HargaTotal.Int64()))
	if tx.Dibayar != nil {
		r.pair(&b, "Bayar", money.FormatRupiah(tx.Dibayar.Int64()))
	}
	if tx.Kembalian != nil {
		r.pair(&b, "Kembali", money.FormatRupiah(tx.Kembalian.Int64()))
	}
	b.WriteString(rule + "\n")

	r.center(&b, thankYou)
	for _, footer := range r.store.FooterLines {
		r.center(&b, footer)
	}
	r.center(&b, r.store.Website)
	b.WriteString("\n")
	r.center(&b, "Dicetak: "+r.now().In(r.loc).Format("02/01/2006 15.04.05"))
	return b.String()
}

func (r *Renderer) center(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range wrap(text, r.width) {
		pad := (r.width - utf8.RuneCountInString(line)) / 2
		b.WriteString(strings.Repeat(" ", pad) + line + "\n")
	}
}

// pair writes left and right on one line, pushing right to the edge. When
// both do not fit, right moves to its own line.
func (r *Renderer) pair(b *strings.Builder, left, right string) {
	gap := r.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		b.WriteString(left + "\n")
		gap = r.width - utf8.RuneCountInString(right)
		if gap < 0 {
			gap = 0
		}
		b.WriteString(strings.Repeat(" ", gap) + right + "\n")
		return
	}
	b.WriteString(left + strings.Repeat(" ", gap) + right + "\n")
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// wrap breaks text on spaces so no line exceeds width; words longer than
// width are cut.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := ""
	for _, word := range words {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
