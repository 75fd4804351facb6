package livelang

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Pair is one (original → translated) mapping entry.
type Pair struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// Mapping is an insertion-ordered string map. Overwriting a key keeps its
// original position. A Mapping is not safe for concurrent mutation, but may be
// read concurrently once built.
type Mapping struct {
	entries []mappingEntry
	index   map[string]int
}

type mappingEntry struct {
	key      string
	value    string
	template *numericTemplate
}

// numericTemplate matches text where each placeholder stands for a digit run.
type numericTemplate struct {
	pattern  *regexp.Regexp
	anchored *regexp.Regexp
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// Set stores value under key, overwriting any previous value.
func (m *Mapping) Set(key, value string) {
	if i, ok := m.index[key]; ok {
		m.entries[i].value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, mappingEntry{
		key:      key,
		value:    value,
		template: compileTemplate(key),
	})
}

// SetIfAbsent stores value under key unless the key already exists.
// It returns true when the value was stored.
func (m *Mapping) SetIfAbsent(key, value string) bool {
	if _, ok := m.index[key]; ok {
		return false
	}
	m.Set(key, value)
	return true
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.entries[i].value, true
}

// Len returns the number of pairs.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Pairs returns a copy of the pairs in insertion order.
func (m *Mapping) Pairs() []Pair {
	if m == nil {
		return nil
	}
	pairs := make([]Pair, len(m.entries))
	for i, e := range m.entries {
		pairs[i] = Pair{Key: e.key, Value: e.value}
	}
	return pairs
}

// Lookup translates a whole text fragment. Exact keys win; otherwise the first
// numeric template that matches the entire fragment is rendered with its digits.
func (m *Mapping) Lookup(text string) (string, bool) {
	if m == nil || text == "" {
		return "", false
	}
	if v, ok := m.Get(text); ok && v != "" {
		return v, true
	}
	for _, e := range m.entries {
		if e.template == nil || e.value == "" {
			continue
		}
		if groups := e.template.anchored.FindStringSubmatch(text); groups != nil {
			return renderTemplate(e.value, groups[1:]), true
		}
	}
	return "", false
}

// MarshalJSON encodes the mapping as an ordered list of pairs.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	pairs := m.Pairs()
	if pairs == nil {
		pairs = []Pair{}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes an ordered list of pairs.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	m.entries = nil
	m.index = make(map[string]int, len(pairs))
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return nil
}

func compileTemplate(key string) *numericTemplate {
	if !strings.Contains(key, NumPlaceholder) {
		return nil
	}
	segments := strings.Split(key, NumPlaceholder)
	for i, s := range segments {
		segments[i] = regexp.QuoteMeta(s)
	}
	expr := strings.Join(segments, `(\d+)`)
	return &numericTemplate{
		pattern:  regexp.MustCompile(expr),
		anchored: regexp.MustCompile("^" + expr + "$"),
	}
}

// renderTemplate fills the placeholders of value with captured digit runs, in
// order. Placeholders left over once the captures run out render empty.
func renderTemplate(value string, captures []string) string {
	if !strings.Contains(value, NumPlaceholder) {
		return value
	}
	parts := strings.Split(value, NumPlaceholder)
	var b strings.Builder
	b.WriteString(parts[0])
	for i, part := range parts[1:] {
		if i < len(captures) {
			b.WriteString(captures[i])
		}
		b.WriteString(part)
	}
	return b.String()
}
