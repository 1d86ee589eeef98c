package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/testutil"
)

func TestScopeCloseDiscardsWriteBack(t *testing.T) {
	c := testutil.NewCard(t, "고양이", "cat")
	release := make(chan struct{})
	gen := &testutil.FakeGenerators{Release: release}
	store := testutil.NewMemoryStore(c)
	scope := New(gen, store, nil, nil).NewScope()

	done := make(chan error, 1)
	go func() {
		_, err := scope.Enrich(context.Background(), c)
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.InFlight() == 5 }, time.Second, time.Millisecond)
	scope.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Empty(t, store.Writes())
	// the provider calls themselves were not recalled
	assert.Equal(t, 5, gen.TotalCalls())
	assert.Equal(t, card.AllFields, card.Missing(store.Details(c.ID), card.AllFields))
}

func TestScopeCallsOutliveContext(t *testing.T) {
	c := testutil.NewCard(t, "고양이", "cat")
	gen := &testutil.FakeGenerators{Delay: 20 * time.Millisecond}
	store := testutil.NewMemoryStore(c)
	scope := New(gen, store, nil, nil).NewScope()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	details, err := scope.Enrich(ctx, c)
	require.NoError(t, err)
	assert.True(t, card.IsComplete(details, card.AllFields))
	assert.Len(t, store.Writes(), 1)
}

func TestClosedScopeRejectsNewEnrichments(t *testing.T) {
	c := testutil.NewCard(t, "고양이", "cat")
	gen := &testutil.FakeGenerators{}
	scope := New(gen, testutil.NewMemoryStore(c), nil, nil).NewScope()

	scope.Close()
	assert.True(t, scope.Closed())

	_, err := scope.EnrichFields(context.Background(), c, card.LightweightFields)
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.Zero(t, gen.TotalCalls())
}

func TestScopesAreIndependent(t *testing.T) {
	c := testutil.NewCard(t, "고양이", "cat")
	gen := &testutil.FakeGenerators{}
	o := New(gen, testutil.NewMemoryStore(c), nil, nil)

	closed := o.NewScope()
	closed.Close()
	open := o.NewScope()

	_, err := open.Enrich(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 5, gen.TotalCalls())
}
