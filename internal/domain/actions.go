package domain

// ActionType identifies a turn owner's declared move.
type ActionType string

const (
	Income      ActionType = "income"
	ForeignAid  ActionType = "foreign_aid"
	Coup        ActionType = "coup"
	Tax         ActionType = "tax"
	Assassinate ActionType = "assassinate"
	Steal       ActionType = "steal"
	Exchange    ActionType = "exchange"
)

// ActionSpec is the static metadata for an action type.
type ActionSpec struct {
	Cost          int
	Challengeable bool
	Blockable     bool
	NeedsTarget   bool
	Claim         Card   // character the action claims, "" when none
	Blockers      []Card // characters a block may legally claim
}

// Actions is the closed metadata table covering every action type.
var Actions = map[ActionType]ActionSpec{
	Income:      {},
	ForeignAid:  {Blockable: true, Blockers: []Card{Duke}},
	Coup:        {Cost: 7, NeedsTarget: true},
	Tax:         {Challengeable: true, Claim: Duke},
	Assassinate: {Cost: 3, Challengeable: true, Blockable: true, NeedsTarget: true, Claim: Assassin, Blockers: []Card{Contessa}},
	Steal:       {Challengeable: true, Blockable: true, NeedsTarget: true, Claim: Captain, Blockers: []Card{Captain, Ambassador}},
	Exchange:    {Challengeable: true, Claim: Ambassador},
}

// CanBlockWith reports whether the claimed character legally blocks the action.
func (s ActionSpec) CanBlockWith(c Card) bool {
	for _, b := range s.Blockers {
		if b == c {
			return true
		}
	}
	return false
}
