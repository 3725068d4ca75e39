// Package sqlstore implements core.InventoryStore on a relational database
// via sqlx. Both sqlite3 (single-host deployments) and postgres are
// supported; queries are written with ? bindvars and rebound per driver.
// The decrement is a conditional UPDATE, so two transactions racing for the
// last copy resolve to exactly one success without an explicit lock.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ublc/libchat/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	book_id          TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	author           TEXT NOT NULL DEFAULT '',
	copies_available INTEGER NOT NULL DEFAULT 0 CHECK (copies_available >= 0),
	location         TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reservations (
	reservation_id TEXT PRIMARY KEY,
	book_id        TEXT NOT NULL,
	book_title     TEXT NOT NULL DEFAULT '',
	student_id     TEXT NOT NULL,
	student_name   TEXT NOT NULL,
	student_email  TEXT NOT NULL,
	created        TIMESTAMP NOT NULL,
	status         TEXT NOT NULL
);`

// Store is a SQL-backed inventory.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and verifies the connection. driver is
// "sqlite3" or "postgres".
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open inventory db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}, nil
}

// Migrate creates the books and reservations tables if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate inventory schema: %w", err)
	}
	return nil
}

// Seed upserts the given catalog. Existing rows keep their live copy count;
// only new books are inserted.
func (s *Store) Seed(ctx context.Context, books []core.Book) error {
	query := s.db.Rebind(`
		INSERT INTO books (book_id, title, author, copies_available, location, category)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (book_id) DO NOTHING`)
	for _, b := range books {
		if _, err := s.db.ExecContext(ctx, query,
			b.BookID, b.Title, b.Author, b.CopiesAvailable, b.Location, b.Category); err != nil {
			return fmt.Errorf("seed book %s: %w", b.BookID, err)
		}
	}
	return nil
}

// Books returns the full catalog ordered by book id.
func (s *Store) Books(ctx context.Context) ([]core.Book, error) {
	var books []core.Book
	err := s.db.SelectContext(ctx, &books, `
		SELECT book_id, title, author, copies_available, location, category
		FROM books
		ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	return books, nil
}

// Reserve decrements the available copies of a book by one. The WHERE
// clause on copies_available makes the read-modify-write a single atomic
// statement; a zero-row result means the book vanished or ran out.
func (s *Store) Reserve(ctx context.Context, bookID string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE books
		SET copies_available = copies_available - 1
		WHERE book_id = ? AND copies_available > 0`), bookID)
	if err != nil {
		return fmt.Errorf("decrement copies for %s: %w", bookID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement copies for %s: %w", bookID, err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish "sold out" from "gone".
	var exists int
	err = s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT 1 FROM books WHERE book_id = ?`), bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("reserve %s: %w", bookID, core.ErrBookNotFound)
	}
	if err != nil {
		return fmt.Errorf("reserve %s: %w", bookID, err)
	}
	return fmt.Errorf("reserve %s: %w", bookID, core.ErrNoCopies)
}

type reservationRow struct {
	ReservationID string    `db:"reservation_id"`
	BookID        string    `db:"book_id"`
	BookTitle     string    `db:"book_title"`
	StudentID     string    `db:"student_id"`
	StudentName   string    `db:"student_name"`
	StudentEmail  string    `db:"student_email"`
	Created       time.Time `db:"created"`
	Status        string    `db:"status"`
}

// LogReservation appends a reservation record.
func (s *Store) LogReservation(ctx context.Context, r core.Reservation) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO reservations
			(reservation_id, book_id, book_title, student_id, student_name, student_email, created, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.BookID, r.BookTitle, r.Student.StudentID, r.Student.Name, r.Student.Email, r.Created, r.Status)
	if err != nil {
		return fmt.Errorf("log reservation %s: %w", r.ID, err)
	}
	return nil
}

// Reservations returns logged reservations, oldest first.
func (s *Store) Reservations(ctx context.Context) ([]core.Reservation, error) {
	var rows []reservationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT reservation_id, book_id, book_title, student_id, student_name, student_email, created, status
		FROM reservations
		ORDER BY created`)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}

	out := make([]core.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Reservation{
			ID:        row.ReservationID,
			BookID:    row.BookID,
			BookTitle: row.BookTitle,
			Student: core.StudentInfo{
				StudentID: row.StudentID,
				Name:      row.StudentName,
				Email:     row.StudentEmail,
			},
			Created: row.Created,
			Status:  row.Status,
		})
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error { return s.db.Close() }
