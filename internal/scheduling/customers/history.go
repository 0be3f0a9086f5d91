package customers

// History is a bounded record of served customers kept for metrics
// and the dashboard's service log. When full, the oldest entry is
// evicted.
type History struct {
	limit int
	items []*Customer
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 200
	}
	return &History{limit: limit}
}

// Append records a served customer, evicting the oldest when the
// bound is reached.
func (h *History) Append(c *Customer) {
	if len(h.items) == h.limit {
		h.items = h.items[1:]
	}
	h.items = append(h.items, c)
}

// Len reports the number of retained customers.
func (h *History) Len() int {
	return len(h.items)
}

// Items returns the retained customers, oldest first.
func (h *History) Items() []*Customer {
	out := make([]*Customer, len(h.items))
	copy(out, h.items)
	return out
}
