package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubCreate(t *testing.T) {
	s := &Stub{BaseURL: "https://pay.example/checkout?shop=demo", NewID: func() string {
		return "0b6f-41c2"
	}}
	p, err := s.Create(context.Background(), 2999, "order", 100)
	require.NoError(t, err)
	assert.Equal(t, "pay_0b6f41c2", p.Reference)
	assert.Equal(t, "https://pay.example/checkout?amount=2999&ref=pay_0b6f41c2&shop=demo", p.RedirectURL)
}

func TestStubDefaultsAndUniqueness(t *testing.T) {
	s := &Stub{}
	a, err := s.Create(context.Background(), 100, "order", 1)
	require.NoError(t, err)
	b, err := s.Create(context.Background(), 100, "order", 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Reference, b.Reference)
	assert.Contains(t, a.RedirectURL, DefaultBaseURL+"?")
	assert.Len(t, a.Reference, len("pay_")+32)
}

func TestStubRejects(t *testing.T) {
	s := &Stub{}
	_, err := s.Create(context.Background(), -1, "order", 1)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Create(ctx, 1, "order", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
