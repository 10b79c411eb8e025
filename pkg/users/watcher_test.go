package users

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "users.json")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	require.NoError(t, err)
	w.Start(context.Background())
	defer w.Close()

	t.Run("signals on atomic save", func(t *testing.T) {
		source := NewFileSource(nil, path)
		require.NoError(t, source.SaveAccounts([]Account{{Username: "alice"}}))

		select {
		case <-w.Changes():
		case <-time.After(2 * time.Second):
			t.Fatal("expected a change notification")
		}
	})

	t.Run("ignores other files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))

		select {
		case <-w.Changes():
			t.Fatal("unexpected notification for unrelated file")
		case <-time.After(150 * time.Millisecond):
		}
	})
}
