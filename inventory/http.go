package inventory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ublc/libchat/core"
)

// HTTPStore reads the catalog from a remote books API. It is read-only:
// reservation writes return core.ErrReadOnly, which a confirmation turn
// surfaces as a reservation failure rather than pretending to succeed.
// Wrap it in Failover so catalog reads degrade to the fixed catalog when
// the remote is unreachable.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore creates a store reading from baseURL + "/api/books".
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Books fetches the remote catalog.
func (s *HTTPStore) Books(ctx context.Context) ([]core.Book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/books", nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	var books []core.Book
	if err := sonic.Unmarshal(body, &books); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return books, nil
}

// Reserve is unsupported on the remote mirror.
func (s *HTTPStore) Reserve(ctx context.Context, bookID string) error {
	return fmt.Errorf("reserve %s: %w", bookID, core.ErrReadOnly)
}

// LogReservation is unsupported on the remote mirror.
func (s *HTTPStore) LogReservation(ctx context.Context, r core.Reservation) error {
	return fmt.Errorf("log reservation %s: %w", r.ID, core.ErrReadOnly)
}

// Reservations is unsupported on the remote mirror.
func (s *HTTPStore) Reservations(ctx context.Context) ([]core.Reservation, error) {
	return nil, core.ErrReadOnly
}
