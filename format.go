package aerialqc

import (
	"strconv"
	"strings"
)

// fixed formats v with prec decimals. Display only; comparisons use raw values.
func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// plain formats v with the shortest exact representation, always keeping a
// decimal point ("2.5", "1.0", "20.0").
func plain(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
