package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/friends"
	"github.com/socialgraph/backend/internal/models"
	"github.com/socialgraph/backend/internal/ratelimit"
	"github.com/socialgraph/backend/internal/repositories"
)

func newFriendService(t *testing.T, users ...models.User) *friends.Service {
	t.Helper()

	store := repositories.NewMemoryStore()
	for _, u := range users {
		if err := store.Users().Create(context.Background(), u); err != nil {
			t.Fatalf("seed user %s: %v", u.ID, err)
		}
	}

	return &friends.Service{
		Requests: store.Friends(),
		Users:    store.Users(),
		Limiter:  ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.DefaultLimit, ratelimit.DefaultWindow),
	}
}

func testUsers() []models.User {
	return []models.User{
		{ID: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Anders"},
		{ID: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Brown"},
		{ID: "carol", Email: "carol@example.com", FirstName: "Carol", LastName: "Bobbins"},
	}
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func sendRequest(t *testing.T, handler FriendHandler, from, to string) friendRequestResponse {
	t.Helper()

	body := fmt.Sprintf(`{"to_user":%q}`, to)
	req := asUser(httptest.NewRequest(http.MethodPost, "/send-request", strings.NewReader(body)), from)
	rec := httptest.NewRecorder()

	handler.Send(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("send: expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var resp friendRequestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return resp
}

func TestFriendHandlerSend(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}

	resp := sendRequest(t, handler, "alice", "bob")
	if resp.ID == "" || resp.FromUser != "alice" || resp.ToUser != "bob" || resp.Accepted {
		t.Fatalf("unexpected request response %+v", resp)
	}
	if resp.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestFriendHandlerSendValidation(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: "{"},
		{name: "missing recipient", body: `{}`},
		{name: "unknown recipient", body: `{"to_user":"nobody"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/send-request", strings.NewReader(tc.body)), "alice")
			rec := httptest.NewRecorder()

			handler.Send(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", rec.Code)
			}
		})
	}
}

func TestFriendHandlerSendRateLimited(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		sendRequest(t, handler, "alice", "bob")
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/send-request", strings.NewReader(`{"to_user":"carol"}`)), "alice")
	rec := httptest.NewRecorder()
	handler.Send(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Rate limit exceeded. You can only send 3 requests per minute." {
		t.Fatalf("unexpected message %q", msg)
	}

	// Other senders keep their own window.
	sendRequest(t, handler, "bob", "carol")
}

func TestFriendHandlerAccept(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}
	created := sendRequest(t, handler, "alice", "bob")

	accept := func(actor, id string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPatch, "/accept-request/"+id, nil), actor)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		handler.Accept(rec, req)
		return rec
	}

	if rec := accept("alice", created.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected sender to be forbidden got %d", rec.Code)
	}
	if rec := accept("carol", created.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected third party to be forbidden got %d", rec.Code)
	}
	if rec := accept("bob", "missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing request got %d", rec.Code)
	}

	rec := accept("bob", created.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp friendRequestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Accepted {
		t.Fatal("expected request to be accepted")
	}

	if rec := accept("bob", created.ID); rec.Code != http.StatusOK {
		t.Fatalf("expected re-accept to succeed got %d", rec.Code)
	}
}

func TestFriendHandlerReject(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}
	created := sendRequest(t, handler, "alice", "bob")

	reject := func(actor, id string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodDelete, "/reject-request/"+id, nil), actor)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		handler.Reject(rec, req)
		return rec
	}

	if rec := reject("alice", created.ID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected sender to be forbidden got %d", rec.Code)
	}

	rec := reject("bob", created.ID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body got %q", rec.Body.String())
	}

	if rec := reject("bob", created.ID); rec.Code != http.StatusNotFound {
		t.Fatalf("expected second reject to yield 404 got %d", rec.Code)
	}
}

func TestFriendHandlerListings(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t, testUsers()...)}

	toBob := sendRequest(t, handler, "alice", "bob")
	sendRequest(t, handler, "carol", "bob")

	req := asUser(httptest.NewRequest(http.MethodPatch, "/accept-request/"+toBob.ID, nil), "bob")
	req.SetPathValue("id", toBob.ID)
	handler.Accept(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	handler.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/friends", nil), "alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var friendsPage pageResponse[userResponse]
	if err := json.NewDecoder(rec.Body).Decode(&friendsPage); err != nil {
		t.Fatalf("decode friends: %v", err)
	}
	if friendsPage.Count != 1 || len(friendsPage.Results) != 1 || friendsPage.Results[0].ID != "bob" {
		t.Fatalf("unexpected friends page %+v", friendsPage)
	}

	// Friendship is directional.
	rec = httptest.NewRecorder()
	handler.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/friends", nil), "bob"))
	var reverse pageResponse[userResponse]
	if err := json.NewDecoder(rec.Body).Decode(&reverse); err != nil {
		t.Fatalf("decode reverse: %v", err)
	}
	if reverse.Count != 0 || reverse.Results == nil {
		t.Fatalf("expected empty result list, got %+v", reverse)
	}

	rec = httptest.NewRecorder()
	handler.Pending(rec, asUser(httptest.NewRequest(http.MethodGet, "/pending-requests", nil), "bob"))
	var pending pageResponse[friendRequestResponse]
	if err := json.NewDecoder(rec.Body).Decode(&pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if pending.Count != 1 || pending.Results[0].FromUser != "carol" || pending.Results[0].Accepted {
		t.Fatalf("unexpected pending page %+v", pending)
	}

	rec = httptest.NewRecorder()
	handler.Pending(rec, asUser(httptest.NewRequest(http.MethodGet, "/pending-requests?page=3", nil), "bob"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected out-of-range page to yield 404 got %d", rec.Code)
	}
}

func TestFriendHandlerRequiresUser(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t)}

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/friends", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

type erroringFriendService struct {
	FriendService
	err error
}

func (s erroringFriendService) ListFriends(context.Context, string, models.Page) ([]models.User, int, error) {
	return nil, 0, s.err
}

func TestFriendHandlerInternalError(t *testing.T) {
	handler := FriendHandler{Friends: erroringFriendService{err: errors.New("db down")}}

	rec := httptest.NewRecorder()
	handler.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/friends", nil), "alice"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}

func TestFriendHandlerMethodNotAllowed(t *testing.T) {
	handler := FriendHandler{Friends: newFriendService(t)}

	cases := []struct {
		method string
		fn     http.HandlerFunc
	}{
		{http.MethodGet, handler.Send},
		{http.MethodGet, handler.Accept},
		{http.MethodPost, handler.Reject},
		{http.MethodPost, handler.List},
		{http.MethodPost, handler.Pending},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.fn(rec, httptest.NewRequest(tc.method, "/", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405 got %d", rec.Code)
		}
	}
}

func TestFriendHandlerRateLimitMessageFollowsConfig(t *testing.T) {
	service := newFriendService(t, testUsers()...)
	service.Limiter = ratelimit.NewLimiter(ratelimit.NewMemoryStore(), 1, 5*time.Minute)
	handler := FriendHandler{Friends: service}

	sendRequest(t, handler, "alice", "bob")

	req := asUser(httptest.NewRequest(http.MethodPost, "/send-request", strings.NewReader(`{"to_user":"carol"}`)), "alice")
	rec := httptest.NewRecorder()
	handler.Send(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Rate limit exceeded. You can only send 1 requests per 5 minutes." {
		t.Fatalf("unexpected message %q", msg)
	}
}
