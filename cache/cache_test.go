package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstehr/abilityc/llm"
)

func baseKey() Key {
	return Key{
		Version: "v1",
		Purpose: "plan",
		Model:   "openai/gpt-4o-mini",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleUser, Content: "user"},
		},
		Params: llm.Params{Temperature: 0.2},
	}
}

func TestFingerprintStable(t *testing.T) {
	a, b := Fingerprint(baseKey()), Fingerprint(baseKey())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(baseKey())
	mutations := map[string]func(*Key){
		"version":     func(k *Key) { k.Version = "v2" },
		"purpose":     func(k *Key) { k.Purpose = "other" },
		"model":       func(k *Key) { k.Model = "gemini/gemini-2.0-flash" },
		"temperature": func(k *Key) { k.Params.Temperature = 0.1 },
		"message":     func(k *Key) { k.Messages[1].Content = "user!" },
		"role":        func(k *Key) { k.Messages[1].Role = llm.RoleAssistant },
		"extra": func(k *Key) {
			k.Messages = append(k.Messages, llm.Message{Role: llm.RoleUser, Content: "again"})
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			k := baseKey()
			mutate(&k)
			assert.NotEqual(t, base, Fingerprint(k))
		})
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "fp", "first"))
	text, ok, err := s.Get(ctx, "fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	require.NoError(t, s.Put(ctx, "fp", "second"))
	text, _, err = s.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testStore(t, m)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp := Fingerprint(Key{Version: "v", Model: string(rune('a' + i))})
			_ = m.Put(ctx, fp, "x")
			_, _, _ = m.Get(ctx, fp)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, m.Len())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	testStore(t, s)
	require.NoError(t, s.Close())

	// Entries survive reopening the file.
	s, err = OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	text, ok, err := s.Get(context.Background(), "fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", text)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, Config{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.(*SQLite).Close())

	_, err = Open(ctx, Config{Backend: "memcached"})
	assert.Error(t, err)
}
