package council

import "fmt"

// Label is the opaque handle ("Response A", "Response B", …) standing
// in for a participant's identity during Stage 2.
type Label string

// LabelMap is the bijection between labels and backend identifiers for
// one deliberation. It is a value owned by that deliberation and is
// never shared across runs; the identity mapping only leaves the
// engine as part of the final result, for caller-side display.
type LabelMap struct {
	labels    []Label
	byLabel   map[Label]string
	byBackend map[string]Label
}

// BuildLabelMap assigns labels to backends in the order they are
// supplied. Assignment is deterministic: the same backend list always
// yields the same map, independent of response arrival order.
func BuildLabelMap(backends []string) LabelMap {
	m := LabelMap{
		labels:    make([]Label, 0, len(backends)),
		byLabel:   make(map[Label]string, len(backends)),
		byBackend: make(map[string]Label, len(backends)),
	}
	for i, backend := range backends {
		label := labelForIndex(i)
		m.labels = append(m.labels, label)
		m.byLabel[label] = backend
		m.byBackend[backend] = label
	}
	return m
}

// labelForIndex produces "Response A" … "Response Z", then
// "Response AA", "Response AB", … for larger councils.
func labelForIndex(i int) Label {
	suffix := ""
	for {
		suffix = string(rune('A'+i%26)) + suffix
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return Label(fmt.Sprintf("Response %s", suffix))
}

// Labels returns all labels in assignment order.
func (m LabelMap) Labels() []Label {
	out := make([]Label, len(m.labels))
	copy(out, m.labels)
	return out
}

// Len returns the number of labeled backends.
func (m LabelMap) Len() int { return len(m.labels) }

// Backend resolves a label to its backend identifier.
func (m LabelMap) Backend(label Label) (string, bool) {
	backend, ok := m.byLabel[label]
	return backend, ok
}

// LabelFor resolves a backend identifier to its label.
func (m LabelMap) LabelFor(backend string) (Label, bool) {
	label, ok := m.byBackend[backend]
	return label, ok
}

// Known reports whether the label belongs to this map.
func (m LabelMap) Known(label Label) bool {
	_, ok := m.byLabel[label]
	return ok
}

// Display returns the label→backend mapping for caller-side display
// of "who said what". The copy keeps the internal map immutable.
func (m LabelMap) Display() map[string]string {
	out := make(map[string]string, len(m.byLabel))
	for label, backend := range m.byLabel {
		out[string(label)] = backend
	}
	return out
}
