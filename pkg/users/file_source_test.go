package users

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostneek/FrostChat/pkg/authorization"
)

func TestFileSource_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	source := NewFileSource(fs, "jsons/users.json")

	accounts := []Account{
		{Username: "alice", Password: "pw1", Role: authorization.User},
		{Username: "bøb_ü", Password: `p"a\ss w0rd{}`, Role: authorization.CoOwner},
		{Username: "carol<script>", Password: "日本語🔑", Role: authorization.Owner},
		{Username: "d,e:f", Password: "", Role: authorization.Trial},
	}

	require.NoError(t, source.SaveAccounts(accounts))

	loaded, err := source.LoadAccounts()
	require.NoError(t, err)
	assert.Equal(t, accounts, loaded)

	exists, err := afero.Exists(fs, "jsons/users.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temp file should be renamed away")
}

func TestFileSource_Format(t *testing.T) {
	fs := afero.NewMemMapFs()
	source := NewFileSource(fs, "users.json")

	require.NoError(t, source.SaveAccounts([]Account{{Username: "alice", Password: "x", Role: authorization.Admin}}))

	data, err := afero.ReadFile(fs, "users.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"alice","password":"x","role":"Admin"}]`, string(data))
	assert.Contains(t, string(data), "\n  {", "records use two-space indentation")
}

func TestFileSource_EmptySetWritesArray(t *testing.T) {
	fs := afero.NewMemMapFs()
	source := NewFileSource(fs, "users.json")

	require.NoError(t, source.SaveAccounts(nil))

	data, err := afero.ReadFile(fs, "users.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFileSource_NoPriorData(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		source := NewFileSource(afero.NewMemMapFs(), "missing.json")
		_, err := source.LoadAccounts()
		assert.ErrorIs(t, err, ErrNoPriorData)
	})

	t.Run("corrupt file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "users.json", []byte("{not json"), 0644))

		source := NewFileSource(fs, "users.json")
		_, err := source.LoadAccounts()
		assert.ErrorIs(t, err, ErrNoPriorData)
	})
}

func TestFileSource_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "users.json", []byte("[]"), 0644))

	source := NewFileSource(afero.NewReadOnlyFs(base), "users.json")

	_, err := source.LoadAccounts()
	require.NoError(t, err)

	err = source.SaveAccounts([]Account{{Username: "alice"}})
	assert.ErrorIs(t, err, ErrStorageWrite)
}

func TestFileSource_OsFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "users.json")
	source := NewFileSource(nil, path)

	require.NoError(t, source.SaveAccounts([]Account{{Username: "alice", Password: "pw", Role: authorization.User}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	_, err = source.LoadAccounts()
	assert.True(t, errors.Is(err, ErrNoPriorData))
}
