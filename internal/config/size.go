package config

import (
	"fmt"
	"strconv"
	"strings"
)

// sizeSuffixes maps size suffixes to multipliers. IEC suffixes come first so
// "MiB" is not matched as "B".
var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"GIB", 1 << 30},
	{"MIB", 1 << 20},
	{"KIB", 1 << 10},
	{"GB", 1_000_000_000},
	{"MB", 1_000_000},
	{"KB", 1_000},
	{"B", 1},
}

// ParseSize converts a human-readable size string to bytes. It accepts SI
// (KB, MB, GB) and IEC (KiB, MiB, GiB) suffixes. Empty string and "0" return
// 0. A bare number is treated as raw bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	multiplier := int64(1)
	num := s

	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(upper, sf.suffix) {
			multiplier = sf.multiplier
			num = strings.TrimSpace(s[:len(s)-len(sf.suffix)])

			break
		}
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must be non-negative", s)
	}

	return int64(n * float64(multiplier)), nil
}
