package users

import (
	"errors"
	"testing"
)

func TestMemorySource(t *testing.T) {
	source := NewMemorySource(Account{Username: "alice", Password: "pw", Role: "User"})

	t.Run("load returns a copy", func(t *testing.T) {
		loaded, err := source.LoadAccounts()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(loaded) != 1 {
			t.Fatalf("expected 1 account, got %d", len(loaded))
		}
		loaded[0].Role = "Owner"

		again, _ := source.LoadAccounts()
		if again[0].Role != "User" {
			t.Errorf("caller mutation leaked into source: %q", again[0].Role)
		}
	})

	t.Run("save replaces set", func(t *testing.T) {
		if err := source.SaveAccounts([]Account{{Username: "bob"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		loaded, _ := source.LoadAccounts()
		if len(loaded) != 1 || loaded[0].Username != "bob" {
			t.Errorf("expected only bob, got %+v", loaded)
		}
		if source.Saves() != 1 {
			t.Errorf("expected 1 save, got %d", source.Saves())
		}
	})

	t.Run("fail next save", func(t *testing.T) {
		boom := errors.New("disk full")
		source.FailNextSave(boom)

		if err := source.SaveAccounts(nil); err != boom {
			t.Errorf("expected injected error, got %v", err)
		}
		if err := source.SaveAccounts(nil); err != nil {
			t.Errorf("failure should only apply once, got %v", err)
		}
	})
}
