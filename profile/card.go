package profile

// Stats holds the counters displayed on a card. SearchCount and Owned are
// optional so that an absent value can be told apart from zero or false.
type Stats struct {
	TotalEarned string `json:"totalEarned,omitempty"`
	TodayPoints string `json:"todayPoints,omitempty"`
	SearchCount *int64 `json:"searchCount,omitempty"`
	Owned       *bool  `json:"owned,omitempty"`
}

// Card is an editable display card, identified by Name.
type Card struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Handle    string `json:"handle,omitempty"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"textColor,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Stats     *Stats `json:"stats,omitempty"`
}

// Entry is a search index entry, identified by Handle.
type Entry struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Handle      string `json:"handle,omitempty"`
	Color       string `json:"color,omitempty"`
	TextColor   string `json:"textColor,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Points      int64  `json:"points"`
	SearchCount int64  `json:"searchCount"`
	Owned       *bool  `json:"owned,omitempty"`
}

// SearchCount returns the card's search count, or 0 when absent.
func (c Card) SearchCount() int64 {
	if c.Stats == nil || c.Stats.SearchCount == nil {
		return 0
	}
	return *c.Stats.SearchCount
}

// Owned reports whether the card is marked as owned.
func (c Card) Owned() bool {
	return c.Stats != nil && c.Stats.Owned != nil && *c.Stats.Owned
}

// IsOwned reports whether the entry is marked as owned.
func (e Entry) IsOwned() bool {
	return e.Owned != nil && *e.Owned
}

// merge returns c with every non-zero field of u laid over it. Stats merge
// field by field.
func (c Card) merge(u Card) Card {
	out := c.clone()
	if u.Name != "" {
		out.Name = u.Name
	}
	if u.Title != "" {
		out.Title = u.Title
	}
	if u.Handle != "" {
		out.Handle = u.Handle
	}
	if u.Color != "" {
		out.Color = u.Color
	}
	if u.TextColor != "" {
		out.TextColor = u.TextColor
	}
	if u.Icon != "" {
		out.Icon = u.Icon
	}
	if u.Stats != nil {
		if out.Stats == nil {
			out.Stats = &Stats{}
		}
		if u.Stats.TotalEarned != "" {
			out.Stats.TotalEarned = u.Stats.TotalEarned
		}
		if u.Stats.TodayPoints != "" {
			out.Stats.TodayPoints = u.Stats.TodayPoints
		}
		if u.Stats.SearchCount != nil {
			out.Stats.SearchCount = Int64(*u.Stats.SearchCount)
		}
		if u.Stats.Owned != nil {
			out.Stats.Owned = Bool(*u.Stats.Owned)
		}
	}
	return out
}

// clone deep-copies the card so pointer fields are never shared.
func (c Card) clone() Card {
	out := c
	if c.Stats != nil {
		s := *c.Stats
		if s.SearchCount != nil {
			s.SearchCount = Int64(*s.SearchCount)
		}
		if s.Owned != nil {
			s.Owned = Bool(*s.Owned)
		}
		out.Stats = &s
	}
	return out
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
