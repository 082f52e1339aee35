// File: lixenwraith/settings/args.go
package settings

import (
	"fmt"
	"strings"
)

// ArgsRetriever serves values parsed from command-line style arguments:
// "--key=value", "--key value" and bare "--flag" (meaning "true").
// Dotted keys address dotted field keys. Non-flag arguments are ignored.
type ArgsRetriever struct {
	values map[string]any
}

// NewArgsRetriever parses args, typically os.Args[1:].
func NewArgsRetriever(args []string) (*ArgsRetriever, error) {
	parsed, err := parseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArgsParse, err)
	}
	return &ArgsRetriever{values: parsed}, nil
}

func (a *ArgsRetriever) Retrieve(f *Field, _ *Settings) (any, error) {
	if v, ok := a.values[f.Key()]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

// Values returns a copy of the parsed arguments keyed by dotted path.
func (a *ArgsRetriever) Values() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// parseArgs processes command-line arguments into a flat map of dotted
// keys to string values. A repeated key keeps the last value.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// "--" ends flag parsing
			break
		}

		var keyPath, valueStr string
		if k, v, ok := strings.Cut(argContent, "="); ok {
			keyPath, valueStr = k, v
			i++
		} else {
			keyPath = argContent
			// Boolean flag when followed by another flag or nothing
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}
		if !isValidPath(keyPath) {
			return nil, fmt.Errorf("invalid command-line key %q", keyPath)
		}
		if len(valueStr) > MaxValueSize {
			return nil, fmt.Errorf("%w: argument %s", ErrValueSize, keyPath)
		}

		result[keyPath] = valueStr
	}

	return result, nil
}
