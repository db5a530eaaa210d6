package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
)

var (
	adTargetingRe = regexp.MustCompile(`(?i)<script id="__ZAD_TARGETING__"[^>]*>({[\s\S]*?})</script>`)
	ldJSONRe      = regexp.MustCompile(`(?i)<script[^>]+type="application/ld\+json"[^>]*>({[\s\S]*?})</script>`)
)

// findBlock returns the first JSON object captured by re.
func findBlock(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// decodeObject decodes an embedded JSON object keeping numbers as written.
// With repair set, a malformed block is repaired once before giving up.
func decodeObject(block string, repair bool) (map[string]any, error) {
	obj, err := unmarshalObject(block)
	if err == nil {
		return obj, nil
	}
	if !repair {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(block)
	if rerr != nil {
		return nil, eris.Wrapf(err, "repair failed: %v", rerr)
	}
	return unmarshalObject(fixed)
}

func unmarshalObject(block string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, eris.Wrap(err, "decode embedded json")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, eris.New("embedded json is not an object")
	}
	return obj, nil
}

// truthyString renders v the way a falsy-to-empty string coercion would:
// nil, false, zero and "" become "".
func truthyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b := mustJSON(t)
		if b == "[]" || b == "{}" {
			return ""
		}
		return b
	}
}

// flagString renders a present flag as "True"/"False". Strings are
// capitalized.
func flagString(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		if t == "" {
			return ""
		}
		r := []rune(strings.ToLower(t))
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	case nil:
		return ""
	default:
		return truthyString(t)
	}
}

// firstTruthy returns the first non-empty rendering among keys.
func firstTruthy(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := truthyString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func mustJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
