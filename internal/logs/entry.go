package logs

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Entry is one log record: a header line plus any indented continuation lines.
type Entry struct {
	Lines []string
}

// Text joins the entry's lines.
func (e Entry) Text() string {
	return strings.Join(e.Lines, "\n")
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// Filter narrows entries. Zero values match everything.
type Filter struct {
	// ProductID matches a product global id or its numeric suffix.
	ProductID string
	// EventType matches the event_type field.
	EventType string
	// MinLevel drops entries below this level (debug, info, warn, error).
	MinLevel string
}

func (f Filter) empty() bool {
	return f.ProductID == "" && f.EventType == "" && f.MinLevel == ""
}

func (f Filter) belowLevel(level string) bool {
	if f.MinLevel == "" {
		return false
	}
	return parseLevel(level) < parseLevel(f.MinLevel)
}

type jsonRecord struct {
	Level     string `json:"level"`
	ProductID string `json:"product_id"`
	EventType string `json:"event_type"`
}

// Match reports whether the entry passes the filter.
func (f Filter) Match(e Entry) bool {
	if f.empty() {
		return true
	}
	if len(e.Lines) == 0 {
		return false
	}
	header := e.Lines[0]
	if strings.HasPrefix(header, "{") {
		var rec jsonRecord
		if err := json.Unmarshal([]byte(header), &rec); err == nil {
			return f.matchFields(rec.Level, rec.ProductID, rec.EventType)
		}
	}
	return f.matchConsole(e)
}

func (f Filter) matchFields(level, productID, eventType string) bool {
	if f.belowLevel(level) {
		return false
	}
	if f.ProductID != "" && legacyID(productID) != legacyID(f.ProductID) {
		return false
	}
	if f.EventType != "" && !strings.EqualFold(eventType, f.EventType) {
		return false
	}
	return true
}

// matchConsole applies the filter to the human-readable format, whose header
// is "YYYY-MM-DD HH:MM:SS LEVEL [component] Product #N - message".
func (f Filter) matchConsole(e Entry) bool {
	fields := strings.Fields(e.Lines[0])
	if f.MinLevel != "" && (len(fields) < 3 || f.belowLevel(fields[2])) {
		return false
	}
	text := e.Text()
	if f.ProductID != "" && !strings.Contains(e.Lines[0], "Product #"+legacyID(f.ProductID)+" ") &&
		!strings.Contains(text, f.ProductID) {
		return false
	}
	if f.EventType != "" && !strings.Contains(text, f.EventType) {
		return false
	}
	return true
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func legacyID(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.LastIndexByte(id, '/'); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

// group folds lines into entries. Leading continuation lines with no header
// form their own entry.
func group(lines []string) []Entry {
	var entries []Entry
	for _, line := range lines {
		if line == "" {
			continue
		}
		if isContinuation(line) && len(entries) > 0 {
			last := &entries[len(entries)-1]
			last.Lines = append(last.Lines, line)
			continue
		}
		entries = append(entries, Entry{Lines: []string{line}})
	}
	return entries
}
