package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStoreRoundTrip(t *testing.T) {
	store := NewCacheStore(time.Hour, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := New("s1", "u1")
	st.Mode = ModeAwaitingQuantity
	require.NoError(t, store.Put(ctx, st))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, ModeAwaitingQuantity, got.Mode)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheStoreListForUser(t *testing.T) {
	store := NewCacheStore(time.Hour, time.Hour)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		st := New(id, "u1")
		st.StartedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, store.Put(ctx, st))
	}
	other := New("x", "u2")
	require.NoError(t, store.Put(ctx, other))

	states, err := store.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "a", states[0].SessionID)
	assert.Equal(t, "c", states[2].SessionID)

	states, err = store.ListForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestStateClone(t *testing.T) {
	st := New("s1", "u1")
	st.Cart = []CartLine{{MedicineID: "m1", Name: "Dolo 650", Quantity: 2}}
	st.AppendTurn("user", "hello")

	cp := st.Clone()
	cp.Cart[0].Quantity = 99
	cp.Cart = append(cp.Cart, CartLine{MedicineID: "m2", Quantity: 1})
	cp.AppendTurn("assistant", "hi")
	cp.Mode = ModeAwaitingQuantity

	assert.Equal(t, 2, st.Cart[0].Quantity, "clone must not share cart backing array")
	assert.Len(t, st.Cart, 1)
	assert.Len(t, st.History, 1)
	assert.Equal(t, ModeIdle, st.Mode)
}

func TestResetFlowKeepsHistory(t *testing.T) {
	st := New("s1", "u1")
	st.Mode = ModeWizardAwaitPrice
	st.Confirm = ConfirmCheckout
	st.Wizard = Wizard{MedicineID: "m1", Packets: 3}
	st.Cart = []CartLine{{MedicineID: "m1", Quantity: 2}}
	st.Retries = 2
	st.AppendTurn("user", "hello")

	st.ResetFlow()

	assert.Equal(t, ModeIdle, st.Mode)
	assert.Equal(t, ConfirmNone, st.Confirm)
	assert.Equal(t, Wizard{}, st.Wizard)
	assert.Empty(t, st.Cart)
	assert.Zero(t, st.Retries)
	assert.Len(t, st.History, 1)
	assert.Equal(t, "s1", st.SessionID)
}
