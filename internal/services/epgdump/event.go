package epgdump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Event is the subset of a mirakurun program record tsutils renders.
type Event struct {
	ID          int64    `json:"id"`
	EventID     int      `json:"eventId"`
	ServiceID   int      `json:"serviceId"`
	NetworkID   int      `json:"networkId"`
	StartAt     int64    `json:"startAt"`
	Duration    int64    `json:"duration"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extended    Extended `json:"extended"`
}

// Extended holds the free-form detail blocks of an event in broadcast order.
type Extended []ExtendedItem

// ExtendedItem is one heading and its text.
type ExtendedItem struct {
	Heading string
	Text    string
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (e *Extended) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extended: expected object, got %v", tok)
	}
	var items Extended
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("extended %q: %w", key, err)
		}
		items = append(items, ExtendedItem{Heading: key, Text: text})
	}
	*e = items
	return nil
}

// MarshalJSON encodes the blocks as an object in their original order.
func (e Extended) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Heading)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var tagPattern = regexp.MustCompile(`\[.*?\]`)

// Matches reports whether the event title appears in the file stem.
func Matches(name, stem string) bool {
	name = norm.NFKC.String(name)
	if name == "" {
		return false
	}
	stem = norm.NFKC.String(stem)
	if strings.Contains(stem, name) {
		return true
	}
	bare := strings.TrimSpace(tagPattern.ReplaceAllString(name, ""))
	return bare != "" && strings.Contains(stem, bare)
}

// SelectEvent merges every event in a mirakurun dump whose title matches
// stem. Fields of later matches override earlier ones. ok is false when no
// event matched.
func SelectEvent(data []byte, stem string) (Event, bool, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return Event{}, false, fmt.Errorf("decode epg: %w", err)
	}
	merged := make(map[string]json.RawMessage)
	for _, record := range records {
		raw, ok := record["name"]
		if !ok {
			continue
		}
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || !Matches(name, stem) {
			continue
		}
		for key, value := range record {
			merged[key] = value
		}
	}
	if len(merged) == 0 {
		return Event{}, false, nil
	}
	combined, err := json.Marshal(merged)
	if err != nil {
		return Event{}, false, fmt.Errorf("merge events: %w", err)
	}
	var event Event
	if err := json.Unmarshal(combined, &event); err != nil {
		return Event{}, false, fmt.Errorf("decode event: %w", err)
	}
	return event, true, nil
}
