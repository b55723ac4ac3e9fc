package enums

// CartWarningType identifies advisory conditions on a cart line.
type CartWarningType string

const (
	CartWarningExceedsStock CartWarningType = "exceeds_stock"
	CartWarningOutOfStock   CartWarningType = "out_of_stock"
)

// String implements fmt.Stringer.
func (w CartWarningType) String() string {
	return string(w)
}
