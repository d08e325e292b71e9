package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/socialgraph/backend/internal/models"
	"github.com/socialgraph/backend/internal/ratelimit"
	"github.com/socialgraph/backend/internal/repositories"
)

var firstPage = models.Page{Limit: 10}

type fixture struct {
	service *Service
	store   *repositories.MemoryStore
	now     *time.Time
}

func newFixture(t *testing.T, users ...models.User) fixture {
	t.Helper()

	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	counters := ratelimit.NewMemoryStore()
	counters.WithNowFunc(clock)

	store := repositories.NewMemoryStore()
	for _, user := range users {
		if err := store.Users().Create(context.Background(), user); err != nil {
			t.Fatalf("seed user %s: %v", user.ID, err)
		}
	}

	return fixture{
		service: &Service{
			Requests: store.Friends(),
			Users:    store.Users(),
			Limiter:  ratelimit.NewLimiter(counters, 3, time.Minute),
			NowFunc:  clock,
		},
		store: store,
		now:   &now,
	}
}

func user(id, email, first, last string) models.User {
	return models.User{ID: id, Email: email, FirstName: first, LastName: last, Password: "hash"}
}

func defaultUsers() []models.User {
	return []models.User{
		user("u1", "alice@x.com", "Alice", "Anders"),
		user("u2", "bob@x.com", "Bob", "Brown"),
		user("u3", "carol@x.com", "Carol", "Bobbins"),
		user("u4", "dave@x.com", "Dave", "Dunn"),
		user("u5", "erin@x.com", "Erin", "Ebbs"),
	}
}

func TestSendCreatesPendingRequest(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	request, err := f.service.Send(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if request.Accepted {
		t.Fatal("expected new request to be pending")
	}
	if !request.CreatedAt.Equal(*f.now) {
		t.Fatalf("expected createdAt from NowFunc got %v", request.CreatedAt)
	}

	pending, total, err := f.service.ListPending(ctx, "u2", firstPage)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].FromUser != "u1" {
		t.Fatalf("expected one pending request from u1, got %+v", pending)
	}

	outgoing, _, err := f.service.ListPending(ctx, "u1", firstPage)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(outgoing) != 0 {
		t.Fatalf("expected outgoing requests to be hidden, got %+v", outgoing)
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t, defaultUsers()...)

	if _, err := f.service.Send(context.Background(), "u1", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty recipient got %v", err)
	}
	if _, err := f.service.Send(context.Background(), "u1", "ghost"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown recipient got %v", err)
	}

	// Failed validation must not use up the window.
	for i, to := range []string{"u2", "u3", "u4"} {
		if _, err := f.service.Send(context.Background(), "u1", to); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
}

func TestSendAllowsSelfAndDuplicateRequests(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	if _, err := f.service.Send(ctx, "u1", "u1"); err != nil {
		t.Fatalf("self request: %v", err)
	}
	if _, err := f.service.Send(ctx, "u2", "u3"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := f.service.Send(ctx, "u2", "u3"); err != nil {
		t.Fatalf("duplicate request: %v", err)
	}

	_, total, err := f.service.ListPending(ctx, "u3", firstPage)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected duplicate pending requests to both exist, got %d", total)
	}
}

func TestSendRateLimit(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	for i, to := range []string{"u2", "u3", "u4"} {
		if _, err := f.service.Send(ctx, "u1", to); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}

	_, err := f.service.Send(ctx, "u1", "u5")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited got %v", err)
	}
	var quota *RateLimitError
	if !errors.As(err, &quota) || quota.Limit != 3 || quota.Window != time.Minute {
		t.Fatalf("expected quota 3 per minute on the error, got %v", err)
	}

	if _, total, _ := f.service.ListPending(ctx, "u5", firstPage); total != 0 {
		t.Fatalf("expected refused request not to be stored")
	}

	if _, err := f.service.Send(ctx, "u2", "u5"); err != nil {
		t.Fatalf("expected other senders to be unaffected: %v", err)
	}

	*f.now = f.now.Add(59 * time.Second)
	if _, err := f.service.Send(ctx, "u1", "u5"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected window still open got %v", err)
	}

	*f.now = f.now.Add(time.Second)
	if _, err := f.service.Send(ctx, "u1", "u5"); err != nil {
		t.Fatalf("expected window reset after 60 seconds: %v", err)
	}
}

type failingRequestStore struct {
	RequestStore
	err error
}

func (s failingRequestStore) CreateRequest(context.Context, models.FriendRequest) error {
	return s.err
}

func TestSendReleasesSlotWhenPersistFails(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	f.service.Requests = failingRequestStore{RequestStore: f.store.Friends(), err: errors.New("db down")}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.service.Send(ctx, "u1", "u2"); err == nil || errors.Is(err, ErrRateLimited) {
			t.Fatalf("attempt %d: expected storage error got %v", i+1, err)
		}
	}

	f.service.Requests = f.store.Friends()
	if _, err := f.service.Send(ctx, "u1", "u2"); err != nil {
		t.Fatalf("expected failed writes not to count: %v", err)
	}
}

func TestAcceptByNonRecipientIsForbidden(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	request, err := f.service.Send(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, actor := range []string{"u1", "u3"} {
		if _, err := f.service.Accept(ctx, request.ID, actor); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden for %s got %v", actor, err)
		}
		if err := f.service.Reject(ctx, request.ID, actor); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden rejecting as %s got %v", actor, err)
		}
	}

	stored, err := f.store.Friends().FindRequest(ctx, request.ID)
	if err != nil {
		t.Fatalf("find request: %v", err)
	}
	if !stored.Pending() {
		t.Fatal("expected request to remain pending")
	}
}

func TestAcceptEstablishesDirectionalFriendship(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	request, err := f.service.Send(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	accepted, err := f.service.Accept(ctx, request.ID, "u2")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !accepted.Accepted {
		t.Fatal("expected accepted request")
	}

	friends, total, err := f.service.ListFriends(ctx, "u1", firstPage)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if total != 1 || len(friends) != 1 || friends[0].ID != "u2" {
		t.Fatalf("expected u1 friends = [u2], got %+v", friends)
	}

	reverse, _, err := f.service.ListFriends(ctx, "u2", firstPage)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(reverse) != 0 {
		t.Fatalf("expected friendship to be directional, got %+v", reverse)
	}

	if _, err := f.service.Accept(ctx, request.ID, "u2"); err != nil {
		t.Fatalf("expected re-accept to succeed: %v", err)
	}
}

func TestRejectDeletesRequest(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	request, err := f.service.Send(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := f.service.Reject(ctx, request.ID, "u2"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := f.service.Accept(ctx, request.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound accepting rejected request got %v", err)
	}
	if err := f.service.Reject(ctx, request.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound rejecting twice got %v", err)
	}

	if _, total, _ := f.service.ListPending(ctx, "u2", firstPage); total != 0 {
		t.Fatalf("expected no pending requests after reject")
	}
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"exactEmail", "bob@x.com", []string{"u2"}},
		{"emailIsNotSubstring", "bob@x", nil},
		{"emailIsCaseSensitive", "BOB@x.com", nil},
		{"nameSubstringIgnoresCase", "bo", []string{"u2", "u3"}},
		{"lastName", "EBB", []string{"u5"}},
		{"noMatch", "zed", nil},
		{"empty", "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users, total, err := f.service.SearchUsers(ctx, tc.query, firstPage)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if total != len(tc.want) || len(users) != len(tc.want) {
				t.Fatalf("expected %v got %+v (total %d)", tc.want, users, total)
			}
			for i, id := range tc.want {
				if users[i].ID != id {
					t.Fatalf("expected %v got %+v", tc.want, users)
				}
			}
		})
	}
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t, defaultUsers()...)
	ctx := context.Background()

	var toU2 models.FriendRequest
	for i, to := range []string{"u2", "u3", "u4"} {
		request, err := f.service.Send(ctx, "u1", to)
		if err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		if to == "u2" {
			toU2 = request
		}
	}
	if _, err := f.service.Send(ctx, "u1", "u5"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected fourth send to be rate limited got %v", err)
	}

	if _, err := f.service.Accept(ctx, toU2.ID, "u2"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	friends, _, err := f.service.ListFriends(ctx, "u1", firstPage)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != "u2" {
		t.Fatalf("expected [u2] got %+v", friends)
	}

	pending, _, err := f.service.ListPending(ctx, "u2", firstPage)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending requests for u2 got %+v", pending)
	}
}

func TestWindowPhrase(t *testing.T) {
	cases := map[time.Duration]string{
		time.Minute:             "minute",
		5 * time.Minute:         "5 minutes",
		30 * time.Second:        "30 seconds",
		time.Hour:               "hour",
		2 * time.Hour:           "2 hours",
		1500 * time.Millisecond: "1.5s",
	}
	for in, want := range cases {
		if got := WindowPhrase(in); got != want {
			t.Fatalf("WindowPhrase(%v) = %q want %q", in, got, want)
		}
	}
}
