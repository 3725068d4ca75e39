package libchat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ublc/libchat/chat"
	"github.com/ublc/libchat/core"
	"github.com/ublc/libchat/inventory"
)

func TestDefaultsAreUsable(t *testing.T) {
	l := New()

	resp := l.Chat(context.Background(), chat.TurnRequest{Message: "hello"})
	require.True(t, resp.Success)
	require.NotNil(t, resp.SessionID)
}

func TestFullReservationThroughFacade(t *testing.T) {
	store := inventory.NewFixedStore()
	l := New(func(o *Options) { o.Inventory = store })
	ctx := context.Background()

	first := l.Chat(ctx, chat.TurnRequest{Message: "can i get Python Programming"})
	require.True(t, first.ReservationIntent)
	require.NotNil(t, first.SessionID)
	id := *first.SessionID

	second := l.Chat(ctx, chat.TurnRequest{
		Message:   "2220122, Maria Santos, 2220122@ub.edu.ph",
		SessionID: id,
	})
	require.True(t, second.RequiresConfirmation)

	third := l.Chat(ctx, chat.TurnRequest{Message: "yes", SessionID: id})
	require.True(t, third.ReservationComplete)
	assert.Nil(t, third.SessionID)

	books, err := store.Books(ctx)
	require.NoError(t, err)
	python, ok := core.FindBookByTitle(books, "Python Programming")
	require.True(t, ok)
	assert.Equal(t, 8, python.CopiesAvailable)
}

func TestClearSessionThroughFacade(t *testing.T) {
	l := New()

	assert.NoError(t, l.ClearSession("never-existed"))

	resp := l.Chat(context.Background(), chat.TurnRequest{Message: "hi"})
	require.NotNil(t, resp.SessionID)
	require.NoError(t, l.ClearSession(*resp.SessionID))
	_, ok := l.SessionInfo(*resp.SessionID)
	assert.False(t, ok)
}
