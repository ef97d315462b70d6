package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2beens/fitcoach/internal/profile"
)

// ParseInput turns the text of an input into a value for spec's field.
// Lists are comma separated. An empty number or nullable string is null.
func ParseInput(spec profile.FieldSpec, raw string) (profile.Value, error) {
	trimmed := strings.TrimSpace(raw)

	var v profile.Value
	switch spec.Kind {
	case profile.KindNumber:
		if trimmed == "" {
			v = profile.Null()
			break
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", "."), 64)
		if err != nil {
			return profile.Value{}, fmt.Errorf("%s must be a number", spec.Label)
		}
		v = profile.Number(n)
	case profile.KindStrings:
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		v = profile.Strings(items...)
	default:
		if trimmed == "" && spec.Nullable {
			v = profile.Null()
			break
		}
		v = profile.String(raw)
	}

	if err := profile.CheckValue(spec.Field, v); err != nil {
		return profile.Value{}, err
	}
	return v, nil
}

// FormatValue is the inverse of ParseInput, used to fill the inputs.
func FormatValue(v profile.Value) string {
	switch v.Kind() {
	case profile.KindString:
		return v.AsString()
	case profile.KindStrings:
		return strings.Join(v.AsStrings(), ", ")
	case profile.KindNumber:
		return strconv.FormatFloat(v.AsNumber(), 'f', -1, 64)
	default:
		return ""
	}
}
