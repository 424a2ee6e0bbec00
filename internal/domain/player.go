package domain

// Player holds one participant's mutable state. Players are never removed on
// elimination; an empty hand marks them out for the rest of the game.
type Player struct {
	ID    string
	Name  string
	Coins int
	Hand  []Card
}

// NewPlayer returns a lobby participant with the starting coin balance.
func NewPlayer(id, name string) *Player {
	return &Player{ID: id, Name: name, Coins: StartingCoins}
}

// Alive reports whether the player still holds at least one card.
func (p *Player) Alive() bool {
	return len(p.Hand) > 0
}

// AddCard appends a card to the hand, preserving insertion order.
func (p *Player) AddCard(c Card) {
	p.Hand = append(p.Hand, c)
}

// RemoveCard removes and returns the card at the given index.
func (p *Player) RemoveCard(i int) (Card, bool) {
	if i < 0 || i >= len(p.Hand) {
		return "", false
	}
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c, true
}

// HasCard reports whether the hand contains the given character.
func (p *Player) HasCard(c Card) bool {
	for _, h := range p.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// TakeCard removes the first copy of the given character from the hand.
func (p *Player) TakeCard(c Card) bool {
	for i, h := range p.Hand {
		if h == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
