package domain

// Card is one of the five character identities in the base ruleset.
type Card string

const (
	Duke       Card = "Duke"
	Assassin   Card = "Assassin"
	Captain    Card = "Captain"
	Ambassador Card = "Ambassador"
	Contessa   Card = "Contessa"
)

// Characters lists every character kind in deal order.
var Characters = []Card{Duke, Assassin, Captain, Ambassador, Contessa}

const (
	// CopiesPerCharacter is how many copies of each character the pool holds.
	CopiesPerCharacter = 3
	// StartingHandSize is the number of cards dealt to each participant.
	StartingHandSize = 2
	// StartingCoins is each participant's coin balance at game start.
	StartingCoins = 2
	// ExchangeDrawCount is how many cards an exchange draws from the pool.
	ExchangeDrawCount = 2
	// MinPlayers is the smallest roster a game can start with.
	MinPlayers = 2
	// MaxPlayers is the largest roster a room admits.
	MaxPlayers = 6
)

// TotalCards is the constant number of cards in circulation.
const TotalCards = CopiesPerCharacter * 5

// IsCharacter reports whether c names a character in the base ruleset.
func IsCharacter(c Card) bool {
	for _, k := range Characters {
		if k == c {
			return true
		}
	}
	return false
}
