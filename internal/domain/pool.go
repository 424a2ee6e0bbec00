package domain

import "math/rand"

// Pool is the shared deck of character cards. It is the single source of
// truth for card conservation: every card removed from a hand for any reason
// other than the end of the game is returned here and the pool reshuffled
// before the next draw, so discard order is never inferable.
type Pool struct {
	cards []Card
	rng   *rand.Rand
}

// NewPool returns an empty pool using the given rng for shuffles.
func NewPool(rng *rand.Rand) *Pool {
	return &Pool{rng: rng}
}

// Initialize refills the pool with CopiesPerCharacter copies of each kind.
func (p *Pool) Initialize() {
	p.cards = p.cards[:0]
	for _, c := range Characters {
		for i := 0; i < CopiesPerCharacter; i++ {
			p.cards = append(p.cards, c)
		}
	}
}

// Shuffle applies a uniform random permutation to the pool.
func (p *Pool) Shuffle() {
	p.rng.Shuffle(len(p.cards), func(i, j int) {
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	})
}

// Draw removes and returns the top card. The second result is false when the
// pool is empty; valid rule sequences never empty the pool.
func (p *Pool) Draw() (Card, bool) {
	if len(p.cards) == 0 {
		return "", false
	}
	c := p.cards[len(p.cards)-1]
	p.cards = p.cards[:len(p.cards)-1]
	return c, true
}

// Return appends a card back to the pool. Callers must reshuffle before any
// subsequent draw.
func (p *Pool) Return(c Card) {
	p.cards = append(p.cards, c)
}

// Len returns the number of cards currently in the pool.
func (p *Pool) Len() int {
	return len(p.cards)
}

// Counts returns the per-kind card counts currently in the pool.
func (p *Pool) Counts() map[Card]int {
	counts := make(map[Card]int, len(Characters))
	for _, c := range p.cards {
		counts[c]++
	}
	return counts
}
