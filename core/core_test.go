package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentInfoComplete(t *testing.T) {
	assert.True(t, StudentInfo{StudentID: "2220122", Name: "Maria Santos", Email: "2220122@ub.edu.ph"}.Complete())
	assert.False(t, StudentInfo{StudentID: "2220122", Name: "Maria Santos"}.Complete())
	assert.False(t, StudentInfo{}.Complete())
}

func TestStudentInfoValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"2220122@ub.edu.ph", true},
		{"a@b.c", true},
		{"no-at-sign.com", false},
		{"dot.before@only", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, StudentInfo{Email: tt.email}.ValidEmail(), tt.email)
	}
}

func TestNewReservationIDUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewReservationID(now)
		require.False(t, seen[id], "duplicate reservation id %s", id)
		seen[id] = true
		assert.Contains(t, id, "RES-")
	}
}

func TestReservationPickupBy(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := Reservation{Created: created}
	assert.Equal(t, created.Add(72*time.Hour), r.PickupBy())
}

func TestSessionRecentTurns(t *testing.T) {
	s := NewSession("s1")
	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		s.AddTurn("user", msg)
	}

	recent := s.RecentTurns(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "three", recent[0].Text)
	assert.Equal(t, "five", recent[2].Text)

	assert.Len(t, s.RecentTurns(10), 5)
	assert.Nil(t, s.RecentTurns(0))
}

func TestSessionReset(t *testing.T) {
	s := NewSession("s1")
	s.Flow = FlowReservation
	s.Step = StepAwaitingConfirmation
	s.Slots = Slots{BookTitle: "Python Programming", Student: &StudentInfo{StudentID: "1", Name: "n", Email: "n@u.edu"}}
	s.AddTurn("user", "yes")

	s.Reset()

	assert.Equal(t, FlowNone, s.Flow)
	assert.Equal(t, StepNone, s.Step)
	assert.Empty(t, s.Slots.BookTitle)
	assert.Nil(t, s.Slots.Student)
	assert.Len(t, s.Turns, 1, "history survives a reset")
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := NewSession("s1")
	s.Slots.Student = &StudentInfo{StudentID: "1"}
	s.AddTurn("user", "hello")

	clone := s.Clone()
	clone.Slots.Student.StudentID = "2"
	clone.AddTurn("assistant", "hi")

	assert.Equal(t, "1", s.Slots.Student.StudentID)
	assert.Len(t, s.Turns, 1)
}

func TestFindBookByTitle(t *testing.T) {
	books := []Book{
		{BookID: "B001", Title: "Programming in C"},
		{BookID: "B003", Title: "Python Programming"},
	}

	b, ok := FindBookByTitle(books, "python programming")
	require.True(t, ok)
	assert.Equal(t, "B003", b.BookID)

	_, ok = FindBookByTitle(books, "Operating Systems")
	assert.False(t, ok)
}

func TestSearchBooks(t *testing.T) {
	books := []Book{
		{BookID: "B001", Title: "Programming in C", Author: "Dennis Ritchie", Category: "Programming"},
		{BookID: "B002", Title: "Data Structures and Algorithms", Author: "Robert Sedgewick", Category: "Computer Science"},
	}

	assert.Len(t, SearchBooks(books, "programming"), 1)
	assert.Len(t, SearchBooks(books, "sedgewick"), 1)
	assert.Len(t, SearchBooks(books, "b001"), 1)
	assert.Empty(t, SearchBooks(books, ""))
	assert.Empty(t, SearchBooks(books, "astronomy"))
}

func TestRequestLimiter(t *testing.T) {
	l := NewRequestLimiter(3, time.Minute)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client-a"), "request %d", i)
	}
	assert.False(t, l.Allow("client-a"))
	assert.True(t, l.Allow("client-b"), "other keys are independent")

	// Window rolls over.
	base = base.Add(61 * time.Second)
	assert.True(t, l.Allow("client-a"))
	assert.Equal(t, 2, l.Remaining("client-a"))
}

func TestRequestLimiterUnlimited(t *testing.T) {
	l := NewRequestLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("x"))
	}
	assert.Equal(t, -1, l.Remaining("x"))
}
