// Package geo handles angle formats, orientation math and geographic feature export.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Carry limits of the sexagesimal components.
const (
	MinutesPerDegree   = 60
	SecondsPerMinute   = 60
	MillionthPerSecond = 1_000_000
)

var (
	ErrSexagesimalLength = errors.New("sexagesimal angle must have 3 or 4 components")
	ErrSexagesimalRange  = errors.New("sexagesimal component out of range")
)

// DecimalDegreesToSexagesimal converts decimal degrees to the
// [degrees, minutes, seconds, millionth-of-second] quadruple.
//
// The sign is carried by the degrees component only; minutes, seconds and
// millionths are magnitudes. Seconds are rounded to the nearest millionth
// and carries propagate upwards, so 59.9999996" becomes one full minute.
func DecimalDegreesToSexagesimal(dd float64) []int {
	sign := 1
	if dd < 0 {
		sign = -1
	}
	v := math.Abs(dd)

	deg := int(v)
	rem := (v - float64(deg)) * MinutesPerDegree
	minutes := int(rem)
	secFloat := (rem - float64(minutes)) * SecondsPerMinute
	seconds := int(secFloat)
	millionth := int(math.Round((secFloat - float64(seconds)) * MillionthPerSecond))

	if millionth == MillionthPerSecond {
		seconds++
		millionth = 0
	}
	if seconds == SecondsPerMinute {
		minutes++
		seconds = 0
	}
	if minutes == MinutesPerDegree {
		deg++
		minutes = 0
	}

	return []int{sign * deg, minutes, seconds, millionth}
}

// SexagesimalToDecimal converts a 3 or 4 component angle back to decimal degrees.
// A negative sign on any component makes the whole angle negative, which also
// accepts documents that repeat the sign on every component.
func SexagesimalToDecimal(q []int) (float64, error) {
	if len(q) != 3 && len(q) != 4 {
		return 0, fmt.Errorf("%w: got %d", ErrSexagesimalLength, len(q))
	}

	negative := false
	abs := func(v int) float64 {
		if v < 0 {
			negative = true
			return float64(-v)
		}
		return float64(v)
	}

	seconds := abs(q[2])
	if len(q) == 4 {
		seconds += abs(q[3]) / MillionthPerSecond
	}
	dd := abs(q[0]) + abs(q[1])/MinutesPerDegree + seconds/(MinutesPerDegree*SecondsPerMinute)
	if negative {
		dd = -dd
	}

	return dd, nil
}

// ValidateSexagesimal checks a caller supplied quadruple: 3 or 4 components,
// degrees within [-360, 360] and non-negative sub-degree magnitudes below
// their carry limits.
func ValidateSexagesimal(q []int) error {
	if len(q) != 3 && len(q) != 4 {
		return fmt.Errorf("%w: got %d", ErrSexagesimalLength, len(q))
	}
	if q[0] < -360 || q[0] > 360 {
		return fmt.Errorf("%w: degrees %d", ErrSexagesimalRange, q[0])
	}
	if q[1] < 0 || q[1] >= MinutesPerDegree {
		return fmt.Errorf("%w: minutes %d", ErrSexagesimalRange, q[1])
	}
	if q[2] < 0 || q[2] >= SecondsPerMinute {
		return fmt.Errorf("%w: seconds %d", ErrSexagesimalRange, q[2])
	}
	if len(q) == 4 && (q[3] < 0 || q[3] >= MillionthPerSecond) {
		return fmt.Errorf("%w: millionth %d", ErrSexagesimalRange, q[3])
	}

	return nil
}

// ParseSexagesimal parses "41,53,24,0" style text (commas, semicolons or
// blanks as separators) into a validated quadruple.
func ParseSexagesimal(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})

	q := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse sexagesimal %q: %w", s, err)
		}
		q = append(q, v)
	}

	if err := ValidateSexagesimal(q); err != nil {
		return nil, err
	}

	return q, nil
}
