package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

type mockAccounts struct {
	updates map[string]string
	err     error
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	if m.err != nil {
		return m.err
	}
	if m.updates == nil {
		m.updates = make(map[string]string)
	}
	m.updates[userID] = displayName
	return nil
}

type mockBonus struct {
	granted map[string]int64
	repeat  bool
	err     error
}

func (m *mockBonus) GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.repeat {
		return false, nil
	}
	if m.granted == nil {
		m.granted = make(map[string]int64)
	}
	m.granted[userID] = amount
	return true, nil
}

func TestOnboardNewUser(t *testing.T) {
	accounts := &mockAccounts{}
	bonus := &mockBonus{}
	svc := NewService(accounts, bonus, rand.New(rand.NewSource(1)))

	result, err := svc.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser error: %v", err)
	}
	if result.ProfileUpdateErr != nil {
		t.Fatalf("unexpected profile error: %v", result.ProfileUpdateErr)
	}
	if !result.WelcomeBonusGranted {
		t.Fatalf("expected welcome bonus grant")
	}
	if bonus.granted["user-1"] != defaultWelcomeBonusGold {
		t.Fatalf("granted = %d, want %d", bonus.granted["user-1"], defaultWelcomeBonusGold)
	}
	if accounts.updates["user-1"] == "" {
		t.Fatalf("expected a generated display name")
	}
}

func TestOnboardNewUserProfileFailureIsNonFatal(t *testing.T) {
	accounts := &mockAccounts{err: errors.New("account service down")}
	bonus := &mockBonus{}
	svc := NewService(accounts, bonus, rand.New(rand.NewSource(1)))

	result, err := svc.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser error: %v", err)
	}
	if result.ProfileUpdateErr == nil {
		t.Fatalf("expected profile error to be surfaced")
	}
	if !result.WelcomeBonusGranted {
		t.Fatalf("bonus must still be granted when profile update fails")
	}
}

func TestOnboardNewUserBonusAlreadyGranted(t *testing.T) {
	svc := NewService(&mockAccounts{}, &mockBonus{repeat: true}, rand.New(rand.NewSource(1)))

	result, err := svc.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser error: %v", err)
	}
	if result.WelcomeBonusGranted {
		t.Fatalf("repeat grant must report false")
	}
}

func TestOnboardNewUserBonusErrorIsFatal(t *testing.T) {
	svc := NewService(&mockAccounts{}, &mockBonus{err: errors.New("storage down")}, rand.New(rand.NewSource(1)))

	if _, err := svc.OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatalf("expected error when bonus grant fails")
	}
}

func TestGenerateFriendlyName(t *testing.T) {
	svc := NewService(&mockAccounts{}, &mockBonus{}, rand.New(rand.NewSource(42)))
	name := svc.generateFriendlyName()
	if name == "" {
		t.Fatalf("empty friendly name")
	}
}
