package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "admin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestStore_GetPut(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "custom_categories")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "custom_categories", []byte(`[{"id":"books"}]`)))
			require.NoError(t, s.Put(ctx, "custom_categories", []byte(`[]`)))

			v, err := s.Get(ctx, "custom_categories")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(v), "put overwrites wholesale")
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	in := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", in))
	in[0] = 'x'
	out, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(out))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	// given
	path := filepath.Join(t.TempDir(), "admin.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "store_settings", []byte(`{"store":{}}`)))
	require.NoError(t, s.Close())
	// when
	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, err := reopened.Get(context.Background(), "store_settings")
	// then
	require.NoError(t, err)
	assert.JSONEq(t, `{"store":{}}`, string(v))
}
