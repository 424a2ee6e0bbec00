package domain

import "testing"

func TestActionSpecs(t *testing.T) {
	tests := []struct {
		action      ActionType
		cost        int
		challenge   bool
		block       bool
		needsTarget bool
		claim       Card
	}{
		{Income, 0, false, false, false, ""},
		{ForeignAid, 0, false, true, false, ""},
		{Coup, 7, false, false, true, ""},
		{Tax, 0, true, false, false, Duke},
		{Assassinate, 3, true, true, true, Assassin},
		{Steal, 0, true, true, true, Captain},
		{Exchange, 0, true, false, false, Ambassador},
	}

	for _, test := range tests {
		spec, ok := Actions[test.action]
		if !ok {
			t.Fatalf("%s missing from action table", test.action)
		}
		if spec.Cost != test.cost {
			t.Errorf("%s cost = %d, want %d", test.action, spec.Cost, test.cost)
		}
		if spec.Challengeable != test.challenge {
			t.Errorf("%s challengeable = %t, want %t", test.action, spec.Challengeable, test.challenge)
		}
		if spec.Blockable != test.block {
			t.Errorf("%s blockable = %t, want %t", test.action, spec.Blockable, test.block)
		}
		if spec.NeedsTarget != test.needsTarget {
			t.Errorf("%s needsTarget = %t, want %t", test.action, spec.NeedsTarget, test.needsTarget)
		}
		if spec.Claim != test.claim {
			t.Errorf("%s claim = %s, want %s", test.action, spec.Claim, test.claim)
		}
	}
}

func TestCanBlockWith(t *testing.T) {
	if !Actions[ForeignAid].CanBlockWith(Duke) {
		t.Fatalf("Duke must block foreign aid")
	}
	if Actions[ForeignAid].CanBlockWith(Contessa) {
		t.Fatalf("Contessa must not block foreign aid")
	}
	if !Actions[Steal].CanBlockWith(Ambassador) {
		t.Fatalf("Ambassador must block steal")
	}
	if Actions[Income].CanBlockWith(Duke) {
		t.Fatalf("income has no blockers")
	}
}
