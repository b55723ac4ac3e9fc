package money

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a whole-rupiah value. The backend serializes money either as a JSON
// number or as a decimal string such as "15000.00"; both decode here.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		raw = s
		if raw == "" {
			*a = 0
			return nil
		}
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	*a = Amount(value.Round(0).IntPart())
	return nil
}

// Int64 returns the raw rupiah value.
func (a Amount) Int64() int64 {
	return int64(a)
}

func (a Amount) String() string {
	return FormatRupiah(int64(a))
}
