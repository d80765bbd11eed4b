package backend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number - число из ответа бэкенда: число, строка с числом или null.
// Всё, что не разбирается, читается как 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// ptr - nil остаётся nil (поле не задано)
func (n *Number) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

// Str - строка, которая может прийти как null
type Str string

func (s *Str) UnmarshalJSON(b []byte) error {
	var v *string
	if err := json.Unmarshal(b, &v); err != nil || v == nil {
		*s = ""
		return nil
	}
	*s = Str(*v)
	return nil
}
