package inventory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ublc/libchat/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.InventoryStore = (*FixedStore)(nil)
	_ core.InventoryStore = (*HTTPStore)(nil)
	_ core.InventoryStore = (*Failover)(nil)
)

func TestFixedStoreReserve(t *testing.T) {
	store := NewFixedStore(core.Book{BookID: "B001", Title: "Programming in C", CopiesAvailable: 2})
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, "B001"))
	require.NoError(t, store.Reserve(ctx, "B001"))

	err := store.Reserve(ctx, "B001")
	assert.ErrorIs(t, err, core.ErrNoCopies)

	books, err := store.Books(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, books[0].CopiesAvailable)

	assert.ErrorIs(t, store.Reserve(ctx, "B999"), core.ErrBookNotFound)
}

func TestFixedStoreReserveLastCopyRace(t *testing.T) {
	store := NewFixedStore(core.Book{BookID: "B001", Title: "Programming in C", CopiesAvailable: 1})
	ctx := context.Background()

	const racers = 16
	var wg sync.WaitGroup
	var successes, noCopies int64
	var mu sync.Mutex

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Reserve(ctx, "B001")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrNoCopies):
				noCopies++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes, "exactly one racer wins the last copy")
	assert.EqualValues(t, racers-1, noCopies)

	books, err := store.Books(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, books[0].CopiesAvailable, "count never goes negative")
}

func TestFixedStoreBooksSnapshotIsIndependent(t *testing.T) {
	store := NewFixedStore()
	ctx := context.Background()

	books, err := store.Books(ctx)
	require.NoError(t, err)
	books[0].CopiesAvailable = -42

	fresh, err := store.Books(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fresh[0].CopiesAvailable, 0)
}

func TestFixedStoreReservationLog(t *testing.T) {
	store := NewFixedStore()
	ctx := context.Background()

	r := core.Reservation{ID: "RES-1", BookID: "B001", Created: time.Now(), Status: core.StatusReserved}
	require.NoError(t, store.LogReservation(ctx, r))

	logged, err := store.Reservations(ctx)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "RES-1", logged[0].ID)
}

func TestHTTPStoreBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"bookId":"B001","title":"Programming in C","copies_available":5}]`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, 2*time.Second)
	books, err := store.Books(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Programming in C", books[0].Title)
	assert.Equal(t, 5, books[0].CopiesAvailable)
}

func TestHTTPStoreIsReadOnly(t *testing.T) {
	store := NewHTTPStore("http://127.0.0.1:0", time.Second)
	assert.ErrorIs(t, store.Reserve(context.Background(), "B001"), core.ErrReadOnly)
	assert.ErrorIs(t, store.LogReservation(context.Background(), core.Reservation{ID: "R"}), core.ErrReadOnly)
}

type failingStore struct{}

func (failingStore) Books(context.Context) ([]core.Book, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Reserve(context.Context, string) error {
	return errors.New("connection refused")
}
func (failingStore) LogReservation(context.Context, core.Reservation) error {
	return errors.New("connection refused")
}
func (failingStore) Reservations(context.Context) ([]core.Reservation, error) {
	return nil, errors.New("connection refused")
}

func TestFailoverDegradesReadsOnly(t *testing.T) {
	f := NewFailover(failingStore{}, NewFixedStore(), nil)
	ctx := context.Background()

	books, err := f.Books(ctx)
	require.NoError(t, err, "reads degrade to the fallback catalog")
	assert.Len(t, books, len(DefaultCatalog()))

	// Writes stay hard failures.
	assert.Error(t, f.Reserve(ctx, "B001"))
	assert.Error(t, f.LogReservation(ctx, core.Reservation{ID: "R"}))
}

func TestFailoverPrefersHealthyPrimary(t *testing.T) {
	primary := NewFixedStore(core.Book{BookID: "X1", Title: "Primary Only", CopiesAvailable: 1})
	f := NewFailover(primary, NewFixedStore(), nil)

	books, err := f.Books(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Primary Only", books[0].Title)
}
