package poker

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Value represents a card value
type Value string

const (
	Ace   Value = "A"
	Two   Value = "2"
	Three Value = "3"
	Four  Value = "4"
	Five  Value = "5"
	Six   Value = "6"
	Seven Value = "7"
	Eight Value = "8"
	Nine  Value = "9"
	Ten   Value = "10"
	Jack  Value = "J"
	Queen Value = "Q"
	King  Value = "K"
)

var (
	allSuits  = []Suit{Spades, Hearts, Diamonds, Clubs}
	allValues = []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Card represents a playing card. It is an immutable value type.
type Card struct {
	suit  Suit
	value Value
}

// CardJSON represents a card for JSON serialization
type CardJSON struct {
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// NewCard creates a new Card with the given suit and value
func NewCard(suit Suit, value Value) Card {
	return Card{suit: suit, value: value}
}

// MarshalJSON implements json.Marshaler interface for Card
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(CardJSON{
		Suit:  string(c.suit),
		Value: string(c.value),
	})
}

// UnmarshalJSON implements json.Unmarshaler interface for Card
func (c *Card) UnmarshalJSON(data []byte) error {
	var cardJSON CardJSON
	if err := json.Unmarshal(data, &cardJSON); err != nil {
		return err
	}

	suit, err := parseSuit(cardJSON.Suit)
	if err != nil {
		return err
	}
	value, err := parseValue(cardJSON.Value)
	if err != nil {
		return err
	}

	c.suit = suit
	c.value = value
	return nil
}

func parseSuit(s string) (Suit, error) {
	switch s {
	case "♠", "s", "S", "spades", "Spades":
		return Spades, nil
	case "♥", "h", "H", "hearts", "Hearts":
		return Hearts, nil
	case "♦", "d", "D", "diamonds", "Diamonds":
		return Diamonds, nil
	case "♣", "c", "C", "clubs", "Clubs":
		return Clubs, nil
	}
	return "", fmt.Errorf("invalid suit: %s", s)
}

func parseValue(s string) (Value, error) {
	switch s {
	case "A", "a", "ace", "Ace":
		return Ace, nil
	case "K", "k", "king", "King":
		return King, nil
	case "Q", "q", "queen", "Queen":
		return Queen, nil
	case "J", "j", "jack", "Jack":
		return Jack, nil
	case "10", "T", "t", "ten", "Ten":
		return Ten, nil
	case "9", "nine", "Nine":
		return Nine, nil
	case "8", "eight", "Eight":
		return Eight, nil
	case "7", "seven", "Seven":
		return Seven, nil
	case "6", "six", "Six":
		return Six, nil
	case "5", "five", "Five":
		return Five, nil
	case "4", "four", "Four":
		return Four, nil
	case "3", "three", "Three":
		return Three, nil
	case "2", "two", "Two":
		return Two, nil
	}
	return "", fmt.Errorf("invalid value: %s", s)
}

// ParseCard parses short notation such as "As", "Td" or "10h".
func ParseCard(s string) (Card, error) {
	r := []rune(s)
	if len(r) < 2 {
		return Card{}, fmt.Errorf("invalid card: %q", s)
	}
	value, err := parseValue(string(r[:len(r)-1]))
	if err != nil {
		return Card{}, err
	}
	suit, err := parseSuit(string(r[len(r)-1:]))
	if err != nil {
		return Card{}, err
	}
	return Card{suit: suit, value: value}, nil
}

// MustParseCards parses a space separated list of cards and panics on error.
func MustParseCards(cards ...string) []Card {
	out := make([]Card, 0, len(cards))
	for _, s := range cards {
		c, err := ParseCard(s)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// String returns a string representation of the card
func (c Card) String() string {
	return string(c.value) + string(c.suit)
}

// NewDeck returns the 52 cards of a standard deck shuffled with rng.
func NewDeck(rng *rand.Rand) []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range allSuits {
		for _, value := range allValues {
			cards = append(cards, Card{suit: suit, value: value})
		}
	}

	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// Draw takes n cards off the top of deck. The input slice is not modified.
// Asking for more cards than remain is a programming error and panics.
func Draw(deck []Card, n int) (drawn, remaining []Card) {
	if n < 0 || n > len(deck) {
		panic(fmt.Sprintf("poker: cannot draw %d cards from a deck of %d", n, len(deck)))
	}
	drawn = make([]Card, n)
	copy(drawn, deck[:n])
	remaining = make([]Card, len(deck)-n)
	copy(remaining, deck[n:])
	return drawn, remaining
}
