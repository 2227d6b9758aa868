package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissingKey(t *testing.T) {
	s := NewMemoryStore(0)

	v, err := s.Get(context.Background(), "artesanato_produtos")

	assert.True(t, errors.Is(err, ErrKeyNotFound), "missing key should report ErrKeyNotFound")
	assert.Nil(t, v)
}

func TestMemoryStore_SetReplacesWholeValue(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`[{"id":"1"}]`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`[]`)))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(v))
}

func TestMemoryStore_ReturnedBytesAreCopies(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_QuotaExceeded(t *testing.T) {
	s := NewMemoryStore(4)

	err := s.Set(context.Background(), "k", []byte("12345"))

	assert.True(t, errors.Is(err, ErrValueTooLarge))
	_, err = s.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, ErrKeyNotFound), "rejected write must not be stored")
}

func TestMemoryStore_EmptyKeyAndClosed(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, "", []byte("v")), ErrEmptyKey)
	_, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), ErrStoreClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", nil), ErrStoreClosed)
}
