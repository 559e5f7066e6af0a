package poker

import (
	"fmt"
	"sort"

	"github.com/chehsunliu/poker"
)

// HandRank represents the category of a poker hand
type HandRank int

const (
	HighCard HandRank = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var handRankNames = map[HandRank]string{
	HighCard:      "High Card",
	Pair:          "One Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

func (r HandRank) String() string {
	if s, ok := handRankNames[r]; ok {
		return s
	}
	return fmt.Sprintf("HandRank(%d)", int(r))
}

// worstRank is one past the largest equivalence class returned by the
// chehsunliu evaluator (7462 distinct five card hands).
const worstRank = 7463

// HandValue is the evaluation of the best five card hand available to a seat.
// Strength alone totally orders hands: higher is better and equal strength is
// a split.
type HandValue struct {
	Rank            HandRank `json:"rank"`
	Strength        int32    `json:"strength"`
	BestHand        []Card   `json:"best_hand"`
	HandDescription string   `json:"description"`
}

// valueToInt converts a card Value to its integer representation
func valueToInt(value Value) int {
	switch value {
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	case Ten:
		return 10
	case Nine:
		return 9
	case Eight:
		return 8
	case Seven:
		return 7
	case Six:
		return 6
	case Five:
		return 5
	case Four:
		return 4
	case Three:
		return 3
	case Two:
		return 2
	default:
		return 0
	}
}

func suitOrder(s Suit) int {
	switch s {
	case Spades:
		return 0
	case Hearts:
		return 1
	case Diamonds:
		return 2
	default:
		return 3
	}
}

// convertCardToChehsunliu converts our Card type to the chehsunliu/poker Card type
func convertCardToChehsunliu(card Card) poker.Card {
	var rankChar byte
	switch card.value {
	case Ten:
		rankChar = 'T'
	case Jack:
		rankChar = 'J'
	case Queen:
		rankChar = 'Q'
	case King:
		rankChar = 'K'
	case Ace:
		rankChar = 'A'
	default:
		rankChar = card.value[0]
	}

	var suitChar byte
	switch card.suit {
	case Spades:
		suitChar = 's'
	case Hearts:
		suitChar = 'h'
	case Diamonds:
		suitChar = 'd'
	case Clubs:
		suitChar = 'c'
	default:
		panic(fmt.Sprintf("poker: card with unknown suit %q", card.suit))
	}

	return poker.NewCard(string([]byte{rankChar, suitChar}))
}

// convertRankClassToHandRank converts chehsunliu rank class to our HandRank
func convertRankClassToHandRank(rank, rankClass int32) HandRank {
	switch rankClass {
	case 1:
		if rank == 1 {
			return RoyalFlush
		}
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}

func toChehsunliu(cards []Card) []poker.Card {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		out[i] = convertCardToChehsunliu(c)
	}
	return out
}

// EvaluateHand evaluates a seat's best 5-card hand from its hole cards and
// the community cards. Between five and seven cards must be supplied in total;
// anything else is a programming error and panics.
func EvaluateHand(holeCards []Card, communityCards []Card) HandValue {
	allCards := make([]Card, 0, len(holeCards)+len(communityCards))
	allCards = append(allCards, holeCards...)
	allCards = append(allCards, communityCards...)
	if len(allCards) < 5 || len(allCards) > 7 {
		panic(fmt.Sprintf("poker: cannot evaluate a hand of %d cards", len(allCards)))
	}

	// Canonical order so the chosen five cards do not depend on input order.
	sortCards(allCards)

	rank := poker.Evaluate(toChehsunliu(allCards))
	rankClass := poker.RankClass(rank)
	handRank := convertRankClassToHandRank(rank, rankClass)

	return HandValue{
		Rank:            handRank,
		Strength:        worstRank - rank,
		BestHand:        arrangeBestFive(getBestFiveCards(allCards, rank), handRank),
		HandDescription: poker.RankString(rank),
	}
}

// getBestFiveCards returns the first 5-card combination, in canonical order,
// that evaluates to bestRank.
func getBestFiveCards(cards []Card, bestRank int32) []Card {
	if len(cards) == 5 {
		out := make([]Card, 5)
		copy(out, cards)
		return out
	}

	for _, combo := range generateCombinations(cards, 5) {
		if poker.Evaluate(toChehsunliu(combo)) == bestRank {
			return combo
		}
	}
	panic("poker: no five card combination matches the seven card rank")
}

// generateCombinations generates all possible k-combinations from a slice of cards
func generateCombinations(cards []Card, k int) [][]Card {
	var combinations [][]Card

	if k > len(cards) || k <= 0 {
		return combinations
	}

	var generate func(start int, current []Card)
	generate = func(start int, current []Card) {
		if len(current) == k {
			combination := make([]Card, k)
			copy(combination, current)
			combinations = append(combinations, combination)
			return
		}

		for i := start; i <= len(cards)-(k-len(current)); i++ {
			generate(i+1, append(current, cards[i]))
		}
	}

	generate(0, make([]Card, 0, k))
	return combinations
}

// sortCards sorts by value (highest first), then by suit.
func sortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		vi, vj := valueToInt(cards[i].value), valueToInt(cards[j].value)
		if vi != vj {
			return vi > vj
		}
		return suitOrder(cards[i].suit) < suitOrder(cards[j].suit)
	})
}

// arrangeBestFive orders the winning cards for display: larger groups first,
// then higher values. A wheel is shown five-high with the ace last.
func arrangeBestFive(cards []Card, rank HandRank) []Card {
	counts := make(map[Value]int, 5)
	for _, c := range cards {
		counts[c.value]++
	}
	sort.SliceStable(cards, func(i, j int) bool {
		ci, cj := counts[cards[i].value], counts[cards[j].value]
		if ci != cj {
			return ci > cj
		}
		return valueToInt(cards[i].value) > valueToInt(cards[j].value)
	})

	if (rank == Straight || rank == StraightFlush) && cards[0].value == Ace && cards[1].value == Five {
		wheel := make([]Card, 0, 5)
		wheel = append(wheel, cards[1:]...)
		cards = append(wheel, cards[0])
	}
	return cards
}

// CompareHands compares two hand values and returns:
// -1 if handA is worse, 0 on a tie, 1 if handA is better.
func CompareHands(handA, handB HandValue) int {
	switch {
	case handA.Strength < handB.Strength:
		return -1
	case handA.Strength > handB.Strength:
		return 1
	}
	return 0
}
