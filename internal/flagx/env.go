package flagx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// The Env* helpers overwrite *dst only when the variable is set and
// non-empty. Parse failures are returned so the caller can decide whether
// a broken environment is fatal.

func EnvString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func EnvInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = n
	return nil
}

func EnvBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = b
	return nil
}

// EnvDuration accepts Go duration strings ("30m") or a bare integer, which
// is interpreted in unit.
func EnvDuration(key string, unit time.Duration, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * unit
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = d
	return nil
}

// EnvList splits a comma-separated variable, dropping blank items.
func EnvList(key string, dst *[]string) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	*dst = SplitList(v)
}

func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
