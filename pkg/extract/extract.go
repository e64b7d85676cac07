// Package extract recovers one JSON object from a free-text model response.
//
// Models wrap the object in prose, pretty-print it, leave raw line breaks
// inside string values and add trailing commas. Extraction slices the brace
// span, repairs those defects and reads only the requested keys. It never
// returns an error: an unusable response is logged and reported as no value.
package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/logging"
)

// Keys requested by the two prompts.
var (
	SummaryKeys = []string{
		entities.FieldSummary,
		entities.FieldDateStarted,
		entities.FieldDateEnded,
		entities.FieldCorpFam,
		entities.FieldCategory,
	}
	TimelineKeys = []string{entities.FieldTimeline}
)

// timelineShape matches a response that is already exactly a single-field
// timeline object.
var timelineShape = regexp.MustCompile(`^\{\s*"timeline":\s*".*?"\s*,?\s*\}$`)

// Fields holds the extracted values. A key is present only when the model
// returned a scalar for it.
type Fields map[string]string

// Get returns the value for key and whether it was present.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Extract parses the response and returns the requested keys. The second
// result is false when no JSON object could be parsed at all.
func Extract(ctx context.Context, response string, keys []string) (Fields, bool) {
	logger := logging.FromContext(ctx)

	text := response
	if !timelineShape.MatchString(text) {
		text = Slice(text)
	}
	text = Sanitize(text)

	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &object); err != nil {
		logger.Warn().Err(err).Str("sanitized", text).Msg("Unable to parse model response as JSON")
		return nil, false
	}
	if object == nil {
		logger.Warn().Str("sanitized", text).Msg("Model response is JSON null, not an object")
		return nil, false
	}

	fields := make(Fields, len(keys))
	for _, key := range keys {
		raw, ok := object[key]
		if !ok {
			continue
		}
		value, ok := scalar(raw)
		if !ok {
			logger.Debug().Str("key", key).RawJSON("value", raw).Msg("Ignoring non-scalar value")
			continue
		}
		fields[key] = value
	}
	return fields, true
}

// Slice cuts text down to the span from the first '{' to the last '}'. Text
// without such a span is returned unchanged.
func Slice(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || start >= end {
		return text
	}
	return text[start : end+1]
}

// Sanitize escapes control characters that appear inside JSON string
// literals and removes trailing commas before a closing '}' or ']'. Text
// outside strings is otherwise left alone, so pretty-printed objects keep
// their layout.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteByte(c)
			case c == '\\':
				escaped = true
				b.WriteByte(c)
			case c == '"':
				inString = false
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				b.WriteString(`\u00`)
				b.WriteString(strconv.FormatInt(int64(c)>>4, 16))
				b.WriteString(strconv.FormatInt(int64(c)&0xf, 16))
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			if closesNext(text[i+1:]) {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// closesNext reports whether the next non-space byte closes an object or array.
func closesNext(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	return rest != "" && (rest[0] == '}' || rest[0] == ']')
}

// scalar renders a JSON string, number or boolean as a string.
func scalar(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	case 't', 'f':
		return trimmed, true
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}
