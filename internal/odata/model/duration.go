package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DurationParseError reports a malformed Edm.Duration value.
type DurationParseError struct {
	Input string
}

func (e *DurationParseError) Error() string {
	return fmt.Sprintf("invalid duration %q", e.Input)
}

// ParseDuration parses an ISO-8601 day-time duration (`-P1DT2H3M4.5S`).
// Years and months are rejected since they have no fixed length.
func ParseDuration(s string) (time.Duration, error) {
	in := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(in, "-") {
		neg = true
		in = in[1:]
	}
	if !strings.HasPrefix(in, "P") || len(in) < 2 {
		return 0, &DurationParseError{Input: s}
	}
	in = in[1:]

	var d time.Duration
	inTime := false
	seen := false
	for len(in) > 0 {
		if in[0] == 'T' {
			if inTime {
				return 0, &DurationParseError{Input: s}
			}
			inTime = true
			in = in[1:]
			continue
		}
		i := strings.IndexAny(in, "DHMS")
		if i <= 0 {
			return 0, &DurationParseError{Input: s}
		}
		n, err := strconv.ParseFloat(in[:i], 64)
		if err != nil || n < 0 {
			return 0, &DurationParseError{Input: s}
		}
		unit := in[i]
		switch {
		case unit == 'D' && !inTime:
			d += time.Duration(n * float64(24*time.Hour))
		case unit == 'H' && inTime:
			d += time.Duration(n * float64(time.Hour))
		case unit == 'M' && inTime:
			d += time.Duration(n * float64(time.Minute))
		case unit == 'S' && inTime:
			d += time.Duration(n * float64(time.Second))
		default:
			return 0, &DurationParseError{Input: s}
		}
		seen = true
		in = in[i+1:]
	}
	if !seen {
		return 0, &DurationParseError{Input: s}
	}
	if neg {
		d = -d
	}
	return d, nil
}

// FormatDuration renders d as an ISO-8601 day-time duration.
func FormatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		b.WriteString(strconv.FormatInt(int64(days), 10))
		b.WriteByte('D')
	}
	if d == 0 {
		if days == 0 {
			return b.String() + "T0S"
		}
		return b.String()
	}

	b.WriteByte('T')
	hours := d / time.Hour
	d -= hours * time.Hour
	if hours > 0 {
		b.WriteString(strconv.FormatInt(int64(hours), 10))
		b.WriteByte('H')
	}
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if minutes > 0 {
		b.WriteString(strconv.FormatInt(int64(minutes), 10))
		b.WriteByte('M')
	}
	if d > 0 {
		b.WriteString(strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
		b.WriteByte('S')
	}
	return b.String()
}
