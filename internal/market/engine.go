// Package market rolls flat venue-trade records up into per-pair groups
// for the coin detail view.
package market

import "sort"

// Record is one venue's trade snapshot for a single pair. Records are
// ephemeral: they come straight off the markets endpoint and are
// consumed immediately by Aggregate.
type Record struct {
	BaseID       string  `json:"base_id"`
	ExchangeID   string  `json:"exchange_id"`
	ExchangeName string  `json:"exchange_name"`
	Pair         string  `json:"pair"`
	MarketURL    string  `json:"market_url"`
	Price        float64 `json:"price"`
	Volume24h    float64 `json:"volume_24h"`
	Share        float64 `json:"share"` // pre-adjusted volume share from the source
}

// Venue is one exchange's entry inside a Group.
type Venue struct {
	Pair         string  `json:"pair"`
	ExchangeID   string  `json:"exchange_id"`
	ExchangeName string  `json:"exchange_name"`
	MarketURL    string  `json:"market_url"`
	Price        float64 `json:"price"`
	Volume24h    float64 `json:"volume_24h"`
}

// Group is the per-pair rollup: venues sorted by volume descending plus
// aggregate totals. AveragePrice is the plain mean of each distinct
// venue's first reported price — deliberately not volume-weighted.
type Group struct {
	Pair           string  `json:"pair"`
	TotalVolume    float64 `json:"total_volume"`
	TotalShare     float64 `json:"total_share"`
	TotalExchanges int     `json:"total_exchanges"`
	AveragePrice   float64 `json:"average_price"`
	Venues         []Venue `json:"exchanges"`

	priceSum float64
}

// Filters drops records before grouping.
type Filters struct {
	BaseID    string   // keep only records for this base asset; empty keeps all
	MinVolume float64  // drop records below this 24h volume
	Blacklist []string // drop records from these venue ids
}

func (f Filters) drop(r Record) bool {
	if f.BaseID != "" && r.BaseID != "" && r.BaseID != f.BaseID {
		return true
	}
	if r.Volume24h < f.MinVolume {
		return true
	}
	for _, id := range f.Blacklist {
		if r.ExchangeID == id {
			return true
		}
	}
	return false
}

// Aggregate buckets records by pair in a single pass, then finalizes
// each group. The two phases are load-bearing: total shares divide by
// the sum of all group volumes, which is only known after the full pass.
func Aggregate(records []Record, f Filters) map[string]*Group {
	groups := make(map[string]*Group)
	venues := make(map[string]map[string]*Venue) // pair -> exchange id
	var allVolume float64

	for _, r := range records {
		if f.drop(r) {
			continue
		}

		g, ok := groups[r.Pair]
		if !ok {
			g = &Group{Pair: r.Pair}
			groups[r.Pair] = g
			venues[r.Pair] = make(map[string]*Venue)
		}

		v, seen := venues[r.Pair][r.ExchangeID]
		if !seen {
			// first sighting of this venue: it joins the average-price sum
			v = &Venue{
				Pair:         r.Pair,
				ExchangeID:   r.ExchangeID,
				ExchangeName: r.ExchangeName,
				MarketURL:    r.MarketURL,
				Price:        r.Price,
			}
			venues[r.Pair][r.ExchangeID] = v
			g.TotalExchanges++
			g.priceSum += r.Price
		}

		// volume accumulates for every record, repeat venues included
		v.Volume24h += r.Volume24h
		g.TotalVolume += r.Volume24h
		allVolume += r.Volume24h
	}

	for pair, g := range groups {
		if g.TotalExchanges > 0 {
			g.AveragePrice = g.priceSum / float64(g.TotalExchanges)
		}
		if allVolume > 0 {
			g.TotalShare = g.TotalVolume / allVolume
		}
		g.Venues = make([]Venue, 0, len(venues[pair]))
		for _, v := range venues[pair] {
			g.Venues = append(g.Venues, *v)
		}
		sort.Slice(g.Venues, func(i, j int) bool {
			return g.Venues[i].Volume24h > g.Venues[j].Volume24h
		})
	}
	return groups
}

// Sorted returns the groups ordered by total volume descending, for
// stable presentation.
func Sorted(groups map[string]*Group) []*Group {
	out := make([]*Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TotalVolume > out[j].TotalVolume
	})
	return out
}
