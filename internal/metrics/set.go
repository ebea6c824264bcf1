package metrics

// Entry is one indicator value.
type Entry struct {
	Key   Key     `json:"key"`
	Value float64 `json:"value"`
}

// Set is an immutable, ordered mapping from Key to value.
// The zero value is an empty set.
type Set struct {
	entries []Entry
}

// NewSet builds a set from entries. Later entries replace earlier ones with
// the same key but keep the position of the first occurrence.
func NewSet(entries ...Entry) Set {
	out := make([]Entry, 0, len(entries))
	index := make(map[Key]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Key]; ok {
			out[i].Value = e.Value
			continue
		}
		index[e.Key] = len(out)
		out = append(out, e)
	}
	return Set{entries: out}
}

// Get returns the value of key and whether it is present.
func (s Set) Get(key Key) (float64, bool) {
	for _, e := range s.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

// Has reports whether key is present.
func (s Set) Has(key Key) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns the number of entries.
func (s Set) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in order.
func (s Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Keys returns the present keys in order.
func (s Set) Keys() []Key {
	out := make([]Key, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Key
	}
	return out
}

// Merge returns a new set with the entries of s followed by the entries of
// other. On collision the value of other wins.
func (s Set) Merge(other Set) Set {
	all := make([]Entry, 0, len(s.entries)+len(other.entries))
	all = append(all, s.entries...)
	all = append(all, other.entries...)
	return NewSet(all...)
}

// Map returns the set as a plain map keyed by identifier.
func (s Set) Map() map[string]float64 {
	out := make(map[string]float64, len(s.entries))
	for _, e := range s.entries {
		out[string(e.Key)] = e.Value
	}
	return out
}

// Ordered rearranges the set in the canonical order: extracted keys first,
// then derived keys.
func (s Set) Ordered() Set {
	out := make([]Entry, 0, len(s.entries))
	for _, group := range [][]Key{Keys, DerivedKeys} {
		for _, k := range group {
			if v, ok := s.Get(k); ok {
				out = append(out, Entry{Key: k, Value: v})
			}
		}
	}
	return Set{entries: out}
}
