package enums

// CheckoutState is a phase of the register's checkout cycle.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateConfirmed  CheckoutState = "confirmed"
	CheckoutStateFailed     CheckoutState = "failed"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// Busy reports whether a submission is in flight.
func (s CheckoutState) Busy() bool {
	return s == CheckoutStateValidating || s == CheckoutStateSubmitting
}
