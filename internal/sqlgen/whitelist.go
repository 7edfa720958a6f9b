package sqlgen

// Whitelist is the set of field names allowed in generated SQL. It keeps the
// order fields were given in, which is the projection order.
//
// A nil *Whitelist allows every field and projects *.
type Whitelist struct {
	fields []string
	set    map[string]struct{}
}

// NewWhitelist creates a whitelist. Duplicate names keep their first
// position.
func NewWhitelist(fields ...string) *Whitelist {
	w := &Whitelist{set: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		if _, dup := w.set[f]; dup {
			continue
		}
		w.set[f] = struct{}{}
		w.fields = append(w.fields, f)
	}
	return w
}

// Allows reports whether field may appear in generated SQL.
func (w *Whitelist) Allows(field string) bool {
	if w == nil {
		return true
	}
	_, ok := w.set[field]
	return ok
}

// Fields returns the allowed fields in order, or nil for a nil whitelist.
func (w *Whitelist) Fields() []string {
	if w == nil {
		return nil
	}
	out := make([]string, len(w.fields))
	copy(out, w.fields)
	return out
}
