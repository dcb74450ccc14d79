package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	EventType string
	Fields    map[string]any
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "time": {}, "level": {}, "msg": {}, "component": {}, "event_type": {}, "job_id": {}, "source": {},
}

// ParseEntry decodes a JSON log line. Lines written by the console handler
// are not JSON and report false.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, "component"),
		EventType: stringField(raw, "event_type"),
	}
	ts := stringField(raw, "ts")
	if ts == "" {
		ts = stringField(raw, "time")
	}
	if ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		entry.Fields[key] = value
	}
	return entry, true
}

// Format renders the entry on one line: time, level, component, message,
// then the remaining fields sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(e.Level))
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields)+1)
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if e.EventType != "" {
		fmt.Fprintf(&b, " event_type=%s", e.EventType)
	}
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

// FormatLine returns the formatted entry for JSON lines and the original
// text otherwise.
func FormatLine(line string) string {
	if entry, ok := ParseEntry(line); ok {
		return entry.Format()
	}
	return line
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}
