package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// SplitSymbols splits a comma separated list into upper-cased, de-duplicated symbols.
func SplitSymbols(s string) []string {
    seen := make(map[string]struct{})
    out := make([]string, 0)
    for _, part := range strings.Split(s, ",") {
        sym := strings.ToUpper(strings.TrimSpace(part))
        if sym == "" {
            continue
        }
        if _, ok := seen[sym]; ok {
            continue
        }
        seen[sym] = struct{}{}
        out = append(out, sym)
    }
    return out
}
