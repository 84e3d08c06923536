package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawStringCommands keep their textual arguments untouched: labels and
// passphrases may look like JSON yet must arrive verbatim.
var rawStringCommands = map[string]struct{}{
	"create":   {},
	"password": {},
	"setlabel": {},
}

// DecodeArgs converts textual positional arguments into native values. For
// most commands each argument is JSON-decoded; values that do not parse as
// JSON pass through as plain strings. Commands on the raw-string denylist
// skip decoding entirely.
func DecodeArgs(commandName string, raw []string) []any {
	out := make([]any, len(raw))
	_, keepRaw := rawStringCommands[commandName]
	for i, arg := range raw {
		if keepRaw {
			out[i] = arg
			continue
		}
		out[i] = decodeOne(arg)
	}
	return out
}

func decodeOne(arg string) any {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return arg
	}
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return arg
	}
	return value
}

// ArgString extracts positional argument i as a string.
func ArgString(req *Request, i int) (string, error) {
	if i >= len(req.Args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := req.Args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %T", i, req.Args[i])
	}
	return s, nil
}

// ArgInt64 extracts positional argument i as an integer. JSON numbers decode
// as float64; the value must be integral.
func ArgInt64(req *Request, i int) (int64, error) {
	if i >= len(req.Args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	switch v := req.Args[i].(type) {
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, fmt.Errorf("argument %d must be an integer, got %v", i, v)
		}
		return n, nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("argument %d must be a number, got %T", i, req.Args[i])
	}
}
