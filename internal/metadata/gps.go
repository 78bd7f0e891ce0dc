package metadata

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errMalformedDMS = errors.New("malformed degree/minute/second triple")

var dmsCleaner = strings.NewReplacer("[", "", "]", "", `"`, "", "(", "", ")", "")

// ParseDMS converts a raw EXIF coordinate such as `["37/1","46/1","2964/100"]`
// or `37, 46, 29.64` into decimal degrees. Each component may be an integer,
// a decimal or a numerator/denominator rational.
func ParseDMS(raw string) (float64, error) {
	parts := strings.Split(dmsCleaner.Replace(raw), ",")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", errMalformedDMS, raw)
	}

	var dms [3]float64
	for i, p := range parts {
		v, err := ParseFraction(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", errMalformedDMS, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("%w: negative component %q", errMalformedDMS, p)
		}
		dms[i] = v
	}

	return dms[0] + dms[1]/60 + dms[2]/3600, nil
}

// ParseFraction parses "37", "29.64" or "2964/100".
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := parseFinite(num)
		if err != nil {
			return 0, err
		}
		d, err := parseFinite(den)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", s)
		}
		return n / d, nil
	}
	return parseFinite(s)
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// Coordinates resolves both axes at once. Either both are returned or
// neither: a bad axis, a missing axis or an out-of-range result yields nil.
func Coordinates(latRaw, latRef, lonRaw, lonRef string) (lat, lon *float64) {
	if strings.TrimSpace(latRaw) == "" || strings.TrimSpace(lonRaw) == "" {
		return nil, nil
	}
	la, err := ParseDMS(latRaw)
	if err != nil {
		return nil, nil
	}
	lo, err := ParseDMS(lonRaw)
	if err != nil {
		return nil, nil
	}
	if hemisphere(latRef) == "S" {
		la = -la
	}
	if hemisphere(lonRef) == "W" {
		lo = -lo
	}
	if math.Abs(la) > 90 || math.Abs(lo) > 180 {
		return nil, nil
	}
	return &la, &lo
}

func hemisphere(ref string) string {
	return strings.ToUpper(strings.Trim(strings.TrimSpace(ref), `"`+"\x00"))
}
