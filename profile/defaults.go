package profile

type seed struct {
	name, title, color, textColor, icon, handle string
	totalEarned, todayPoints                    string
	searchCount                                 int64
}

var seeds = []seed{
	{"MONAD", "Currently Testnet", "#6B46C1", "#E0E7FF", "/monad_logo.ico", "@monad_xyz", "$12,500", "+420", 1247},
	{"BENJA", "Currently Base Chain", "#059669", "#D1FAE5", "/benja.ico", "@itsbenja", "$8,900", "+320", 892},
	{"JAMES", "Currently Solana", "#DC2626", "#FEE2E2", "/JAMES.ico", "@jameschain", "$15,600", "+510", 1435},
	{"EUNICE", "Currently Ethereum", "#7C2D12", "#FED7AA", "/EUNICE.ico", "@euniceeth", "$22,100", "+680", 2156},
	{"MIKE", "Currently Polygon", "#1E40AF", "#DBEAFE", "/mike.ico", "@mikepoly", "$9,800", "+390", 987},
	{"KEONEHON", "Currently Arbitrum", "#9333EA", "#F3E8FF", "/KEONEHON.ico", "@keonearb", "$18,200", "+590", 1678},
}

// DefaultCards returns a fresh copy of the seeded display cards, in order.
func DefaultCards() []Card {
	out := make([]Card, len(seeds))
	for i, s := range seeds {
		out[i] = Card{
			Name:      s.name,
			Title:     s.title,
			Handle:    s.handle,
			Color:     s.color,
			TextColor: s.textColor,
			Icon:      s.icon,
			Stats: &Stats{
				TotalEarned: s.totalEarned,
				TodayPoints: s.todayPoints,
				SearchCount: Int64(s.searchCount),
				Owned:       Bool(false),
			},
		}
	}
	return out
}

// DefaultEntries returns a fresh copy of the seeded search index, in order.
func DefaultEntries() []Entry {
	out := make([]Entry, len(seeds))
	for i, s := range seeds {
		out[i] = Entry{
			Name:        s.name,
			Title:       s.title,
			Handle:      s.handle,
			Color:       s.color,
			TextColor:   s.textColor,
			Icon:        s.icon,
			Points:      s.searchCount,
			SearchCount: s.searchCount,
			Owned:       Bool(false),
		}
	}
	return out
}
