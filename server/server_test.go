package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ublc/libchat/chat"
	"github.com/ublc/libchat/completion"
	"github.com/ublc/libchat/dialogue"
	"github.com/ublc/libchat/inventory"
	"github.com/ublc/libchat/notify"
	"github.com/ublc/libchat/session"
)

func newTestServer(t *testing.T, optFns ...func(o *Options)) (*httptest.Server, *inventory.FixedStore) {
	t.Helper()
	store := inventory.NewFixedStore()
	engine := dialogue.NewEngine(store, func(o *dialogue.Options) {
		o.Notifier = notify.NewLogSender(nil)
	})
	orchestrator := chat.NewOrchestrator(session.NewInMemoryStore(), store, engine, completion.NewMockProvider())

	srv := httptest.NewServer(New("127.0.0.1:0", orchestrator, optFns...).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestChatValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Message is required", body["error"])
}

func TestChatEndToEndReservation(t *testing.T) {
	srv, store := newTestServer(t)

	// Turn 1: reservation intent.
	resp, body := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "reserve Programming in C"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["reservationIntent"])
	assert.Equal(t, true, body["requiresStudentInfo"])
	sessionID, ok := body["sessionId"].(string)
	require.True(t, ok)

	// Session introspection shows the open flow.
	resp, body = getJSON(t, srv.URL+"/api/chat/sessions/"+sessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "reservation", sess["flow"])
	assert.Equal(t, "collecting_info", sess["step"])

	// Turn 2: student identity.
	resp, body = postJSON(t, srv.URL+"/api/chat", map[string]any{
		"message":   "here you go",
		"sessionId": sessionID,
		"student":   map[string]any{"studentId": "2220122", "name": "Maria Santos", "email": "2220122@ub.edu.ph"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["requiresConfirmation"])

	// Turn 3: confirmation clears the session and decrements inventory.
	resp, body = postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "yes", "sessionId": sessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["reservationComplete"])
	assert.NotEmpty(t, body["reservationId"])
	assert.Nil(t, body["sessionId"], "terminal outcome reports a null session id")

	books, err := store.Books(resp.Request.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, books[0].CopiesAvailable)

	resp, _ = getJSON(t, srv.URL+"/api/chat/sessions/"+sessionID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options) { o.RateLimit = 2 })

	for i := 0; i < 2; i++ {
		resp, _ := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hello"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/api/chat", map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestClearAlwaysSucceeds(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/chat/clear", map[string]any{"sessionId": "never-existed"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestBooksEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/books")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["count"])

	resp, body = getJSON(t, srv.URL+"/api/books/search?q=python")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = getJSON(t, srv.URL+"/api/books/search?q=")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDirectReservation(t *testing.T) {
	srv, store := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/reserve", map[string]any{
		"bookId":    "B001",
		"studentId": "2220122",
		"name":      "Maria Santos",
		"email":     "2220122@ub.edu.ph",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	reservation := body["reservation"].(map[string]any)
	reservationID := reservation["reservationId"].(string)
	assert.Contains(t, reservationID, "RES-")

	books, err := store.Books(resp.Request.Context())
	require.NoError(t, err)
	assert.Equal(t, 4, books[0].CopiesAvailable)

	// Lookup round-trips the logged reservation.
	resp, body = getJSON(t, srv.URL+"/api/reserve/"+reservationID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = getJSON(t, srv.URL+"/api/reserve/RES-unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDirectReservationValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing fields", map[string]any{"bookId": "B001"}, http.StatusBadRequest},
		{"bad email", map[string]any{
			"bookId": "B001", "studentId": "1", "name": "X", "email": "nope",
		}, http.StatusBadRequest},
		{"unknown book", map[string]any{
			"bookId": "B999", "studentId": "1", "name": "X", "email": "x@ub.edu.ph",
		}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/reserve", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestDirectReservationExhaustion(t *testing.T) {
	srv, _ := newTestServer(t)

	// B002 has three copies; the fourth attempt must fail with 400.
	for i := 0; i < 3; i++ {
		resp, _ := postJSON(t, srv.URL+"/api/reserve", map[string]any{
			"bookId": "B002", "studentId": fmt.Sprint(i), "name": "X", "email": "x@ub.edu.ph",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := postJSON(t, srv.URL+"/api/reserve", map[string]any{
		"bookId": "B002", "studentId": "4", "name": "X", "email": "x@ub.edu.ph",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No copies available", body["error"])
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
