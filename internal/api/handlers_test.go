package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/transfa/user-service/internal/app"
	"github.com/transfa/user-service/internal/auth"
	"github.com/transfa/user-service/internal/config"
	"github.com/transfa/user-service/internal/domain"
	"github.com/transfa/user-service/internal/store"
)

const testSecret = "test-secret"

// fakeUserRepo backs the handler tests with an in-memory store that honors
// the repository contract: atomic user+account creation, unique usernames,
// partial updates, and the caller-excluding directory search.
type fakeUserRepo struct {
	users    map[string]*domain.User
	accounts map[string]*domain.Account
	nextID   int
	failAll  bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}, accounts: map[string]*domain.Account{}}
}

func (r *fakeUserRepo) CreateUserWithAccount(ctx context.Context, user *domain.User, balance float64) (string, error) {
	if r.failAll {
		return "", fmt.Errorf("store unavailable")
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return "", store.ErrDuplicateUsername
		}
	}
	r.nextID++
	id := fmt.Sprintf("user-%d", r.nextID)
	stored := *user
	stored.ID = id
	r.users[id] = &stored
	r.accounts[id] = &domain.Account{ID: fmt.Sprintf("account-%d", r.nextID), UserID: id, Balance: balance}
	return id, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if r.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, id string, passwordHash, firstName, lastName *string) error {
	u, ok := r.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	if firstName != nil {
		u.FirstName = *firstName
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	return nil
}

func (r *fakeUserRepo) SearchUsers(ctx context.Context, excludeID, filter string) ([]domain.UserSummary, error) {
	needle := strings.ToLower(filter)
	results := []domain.UserSummary{}
	for id, u := range r.users {
		if id == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), needle) || strings.Contains(strings.ToLower(u.LastName), needle) {
			results = append(results, domain.UserSummary{ID: id, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName})
		}
	}
	return results, nil
}

type fakeAccountRepo struct {
	users *fakeUserRepo
}

func (r *fakeAccountRepo) FindByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	a, ok := r.users.accounts[userID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return a, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	service := app.NewUserService(repo, &fakeAccountRepo{users: repo}, []byte(testSecret))
	router := NewRouter(&config.Config{JWTSecret: testSecret}, service)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	decoded := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func signup(t *testing.T, srv *httptest.Server, username, firstName, lastName, password string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/signup", "", map[string]string{
		"username": username, "firstName": firstName, "lastName": lastName, "password": password,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup for %s returned status %d", username, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("signup for %s returned no token", username)
	}
	return token
}

func TestSignupSigninScenario(t *testing.T) {
	srv, _ := newTestServer(t)

	// First signup succeeds and returns a decodable token.
	token := signup(t, srv, "a@x.com", "A", "B", "p")
	firstID, err := auth.GetUserIDFromToken(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("signup token does not verify: %v", err)
	}

	// Second signup with the same username gets the generic 411 message.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/signup", "", map[string]string{
		"username": "a@x.com", "firstName": "C", "lastName": "D", "password": "q",
	})
	if resp.StatusCode != http.StatusLengthRequired {
		t.Fatalf("duplicate signup: expected 411, got %d", resp.StatusCode)
	}
	if body["message"] != "Email already taken / Incorrect inputs" {
		t.Fatalf("duplicate signup: unexpected message %v", body["message"])
	}
	if _, hasToken := body["token"]; hasToken {
		t.Fatal("duplicate signup must not return a token")
	}

	// Signin with the original credentials resolves to the same identity.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/signin", "", map[string]string{
		"username": "a@x.com", "password": "p",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin: expected 200, got %d", resp.StatusCode)
	}
	signinToken, _ := body["token"].(string)
	signinID, err := auth.GetUserIDFromToken(signinToken, []byte(testSecret))
	if err != nil {
		t.Fatalf("signin token does not verify: %v", err)
	}
	if signinID != firstID {
		t.Fatalf("signin resolves to %q, signup to %q", signinID, firstID)
	}
}

func TestSignup_RejectsMalformedInput(t *testing.T) {
	srv, repo := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "username not email shaped", body: map[string]string{"username": "not-an-email", "firstName": "A", "lastName": "B", "password": "p"}},
		{name: "missing password", body: map[string]string{"username": "a@x.com", "firstName": "A", "lastName": "B"}},
		{name: "missing names", body: map[string]string{"username": "a@x.com", "password": "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/signup", "", tt.body)
			if resp.StatusCode != http.StatusLengthRequired {
				t.Fatalf("expected 411, got %d", resp.StatusCode)
			}
			if body["message"] != "Email already taken / Incorrect inputs" {
				t.Fatalf("unexpected message %v", body["message"])
			}
		})
	}

	if len(repo.users) != 0 {
		t.Fatalf("no users should have been created, found %d", len(repo.users))
	}
}

func TestSignin_WrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	signup(t, srv, "a@x.com", "A", "B", "p")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/signin", "", map[string]string{
		"username": "a@x.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusLengthRequired {
		t.Fatalf("expected 411, got %d", resp.StatusCode)
	}
	if body["message"] != "Error while logging in" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if _, hasToken := body["token"]; hasToken {
		t.Fatal("failed signin must not return a token")
	}
}

func TestUpdate_OnlyTouchesCallerRecord(t *testing.T) {
	srv, repo := newTestServer(t)

	aliceToken := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")
	bobToken := signup(t, srv, "bob@x.com", "Bob", "Jones", "p2")
	bobID, _ := auth.GetUserIDFromToken(bobToken, []byte(testSecret))

	// Alice smuggles Bob's ID into the body; it must be ignored.
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/", aliceToken, map[string]string{
		"id":        bobID,
		"firstName": "Mallory",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	aliceID, _ := auth.GetUserIDFromToken(aliceToken, []byte(testSecret))
	if repo.users[aliceID].FirstName != "Mallory" {
		t.Fatalf("caller's firstName should be updated, got %q", repo.users[aliceID].FirstName)
	}
	if repo.users[aliceID].LastName != "Smith" {
		t.Fatalf("omitted lastName should be untouched, got %q", repo.users[aliceID].LastName)
	}
	if repo.users[bobID].FirstName != "Bob" {
		t.Fatalf("another user's record was modified: %q", repo.users[bobID].FirstName)
	}
}

func TestBulk_FiltersAndExcludesCaller(t *testing.T) {
	srv, _ := newTestServer(t)

	aliceToken := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")
	signup(t, srv, "bob@x.com", "Bob", "Smithers", "p2")
	signup(t, srv, "carol@x.com", "Carol", "Jones", "p3")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/bulk?filter=smith", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	users, ok := body["users"].([]interface{})
	if !ok {
		t.Fatalf("expected a users array, got %T", body["users"])
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly Bob to match, got %d entries", len(users))
	}
	entry := users[0].(map[string]interface{})
	if entry["username"] != "bob@x.com" {
		t.Fatalf("expected bob@x.com, got %v", entry["username"])
	}
	for key := range entry {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Fatalf("directory entry leaks credential field %q", key)
		}
	}
}

func TestBulk_EmptyFilterMatchesEveryoneElse(t *testing.T) {
	srv, _ := newTestServer(t)

	aliceToken := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")
	signup(t, srv, "bob@x.com", "Bob", "Smithers", "p2")
	signup(t, srv, "carol@x.com", "Carol", "Jones", "p3")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/bulk", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	users := body["users"].([]interface{})
	if len(users) != 2 {
		t.Fatalf("expected 2 other users, got %d", len(users))
	}
}

func TestMe(t *testing.T) {
	srv, repo := newTestServer(t)
	token := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["firstName"] != "Alice" {
		t.Fatalf("expected firstName Alice, got %v", body["firstName"])
	}

	// A valid token for a vanished user yields 404, not a 500.
	userID, _ := auth.GetUserIDFromToken(token, []byte(testSecret))
	delete(repo.users, userID)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/me", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body["message"] != "User not found" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestMe_StoreFailureIsInternalError(t *testing.T) {
	srv, repo := newTestServer(t)
	token := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")

	repo.failAll = true
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/me", token, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body["message"] != "Internal server error" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestBalance(t *testing.T) {
	srv, repo := newTestServer(t)
	token := signup(t, srv, "alice@x.com", "Alice", "Smith", "p1")
	userID, _ := auth.GetUserIDFromToken(token, []byte(testSecret))

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/balance", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	balance, ok := body["balance"].(float64)
	if !ok {
		t.Fatalf("expected numeric balance, got %T", body["balance"])
	}
	if balance != repo.accounts[userID].Balance {
		t.Fatalf("expected balance %f, got %f", repo.accounts[userID].Balance, balance)
	}
	if balance < 1 || balance >= 10001 {
		t.Fatalf("expected provisioned balance in [1, 10001), got %f", balance)
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/"},
		{http.MethodGet, "/bulk"},
		{http.MethodGet, "/me"},
		{http.MethodGet, "/balance"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			resp, _ := doJSON(t, p.method, srv.URL+p.path, "", nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
			}
		})
	}
}
