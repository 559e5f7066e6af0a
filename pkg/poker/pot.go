package poker

import (
	"sort"
)

// Pot is one layer of the hand's chips and the seats that may win it.
type Pot struct {
	Amount   int64 `json:"amount"`
	Eligible []int `json:"eligible"` // seat indexes
}

// IsEligible checks if the seat at index may win this pot.
func (p *Pot) IsEligible(index int) bool {
	for _, e := range p.Eligible {
		if e == index {
			return true
		}
	}
	return false
}

// BuildPotsFromTotals layers the hand's chips into a main pot and side pots.
// A new layer starts at every distinct contribution of a seat still in the
// hand; each layer is contested by the seats that paid up to it. Chips
// committed by folded seats are spread over the layers they reached.
func BuildPotsFromTotals(seats []*Seat) []Pot {
	seen := map[int64]bool{}
	for _, s := range seats {
		if s.IsActive && s.TotalBet > 0 {
			seen[s.TotalBet] = true
		}
	}
	levels := make([]int64, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	if len(levels) == 0 {
		var p Pot
		for _, s := range seats {
			p.Amount += s.TotalBet
			if s.IsActive {
				p.Eligible = append(p.Eligible, s.Index)
			}
		}
		return []Pot{p}
	}

	pots := make([]Pot, 0, len(levels))
	prev := int64(0)
	for _, lvl := range levels {
		var p Pot
		for _, s := range seats {
			c := s.TotalBet
			if c > lvl {
				c = lvl
			}
			if c > prev {
				p.Amount += c - prev
			}
			if s.IsActive && s.TotalBet >= lvl {
				p.Eligible = append(p.Eligible, s.Index)
			}
		}
		pots = append(pots, p)
		prev = lvl
	}

	// A folded seat can have paid past the highest live contribution.
	top := levels[len(levels)-1]
	for _, s := range seats {
		if s.TotalBet > top {
			pots[len(pots)-1].Amount += s.TotalBet - top
		}
	}
	return pots
}

// distributePots awards every pot to the best eligible hands and credits the
// winning seats. Split pots hand odd chips out one at a time clockwise from
// the first seat left of the dealer.
func distributePots(t *Table, pots []Pot, hands map[int]*HandValue) []Winner {
	won := make(map[int]int64)
	for _, pot := range pots {
		if pot.Amount == 0 {
			continue
		}

		var winners []int
		var best *HandValue
		for _, idx := range pot.Eligible {
			hv := hands[idx]
			if hv == nil {
				panic("poker: eligible seat reached showdown without a hand")
			}
			switch {
			case best == nil || CompareHands(*hv, *best) > 0:
				best = hv
				winners = []int{idx}
			case CompareHands(*hv, *best) == 0:
				winners = append(winners, idx)
			}
		}
		if len(winners) == 0 {
			panic("poker: pot has no eligible seats")
		}

		sort.Slice(winners, func(i, j int) bool {
			return t.clockwiseDistance(winners[i]) < t.clockwiseDistance(winners[j])
		})
		share := pot.Amount / int64(len(winners))
		rem := pot.Amount % int64(len(winners))
		for i, idx := range winners {
			add := share
			if int64(i) < rem {
				add++
			}
			won[idx] += add
		}
	}

	result := make([]Winner, 0, len(won))
	for _, s := range t.Seats {
		amt, ok := won[s.Index]
		if !ok {
			continue
		}
		s.Stack += amt
		result = append(result, Winner{
			SeatIndex: s.Index,
			UserID:    s.UserID,
			Hand:      hands[s.Index],
			AmountWon: amt,
		})
	}
	return result
}
