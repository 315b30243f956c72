// Package util unwraps arguments as they arrive from the game's extension call.
package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TrimQuotes removes one enclosing pair of double quotes.
func TrimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// UnquoteArg turns an SQF string argument back into its raw text.
func UnquoteArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s)))
}

// UnquoteArgs applies UnquoteArg to every element.
func UnquoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = UnquoteArg(a)
	}
	return out
}

// DecodeArg unquotes a JSON argument and decodes it into v.
func DecodeArg(arg string, v any) error {
	raw := UnquoteArg(arg)
	if raw == "" {
		return errors.New("empty argument")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode argument: %w", err)
	}
	return nil
}
