package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kinohq/kino/internal/shared"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	signIn  func(email, password string) (*Session, error)
	signUp  func(email, password string) (*Session, error)
	signOut func(token string) error
	refresh func(refreshToken string) (*Session, error)
	getUser func(token string) (*User, error)
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if f.signIn == nil {
		return nil, errors.New("signIn not stubbed")
	}
	return f.signIn(email, password)
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if f.signUp == nil {
		return nil, errors.New("signUp not stubbed")
	}
	return f.signUp(email, password)
}

func (f *fakeProvider) SignOut(ctx context.Context, token string) error {
	if f.signOut == nil {
		return nil
	}
	return f.signOut(token)
}

func (f *fakeProvider) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if f.refresh == nil {
		return nil, errors.New("refresh not stubbed")
	}
	return f.refresh(refreshToken)
}

func (f *fakeProvider) GetUser(ctx context.Context, token string) (*User, error) {
	if f.getUser == nil {
		return nil, errors.New("getUser not stubbed")
	}
	return f.getUser(token)
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeKeeper struct {
	session *Session
	loadErr error
	saveErr error

	loads  int
	saves  int
	clears int
}

func (f *fakeKeeper) Save(session *Session) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.session = session
	return nil
}

func (f *fakeKeeper) Load() (*Session, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.session, nil
}

func (f *fakeKeeper) Clear() error {
	f.clears++
	f.session = nil
	return nil
}

func testSession(email string, expiry time.Time) *Session {
	return &Session{
		Token: oauth2.Token{
			AccessToken:  "access-" + email,
			RefreshToken: "refresh-" + email,
			Expiry:       expiry,
		},
		User: User{ID: "id-" + email, Email: email},
	}
}

func TestStoreResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("starts in the loading state", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		snap := store.Current()
		if !snap.Loading {
			t.Error("expected Loading before Resolve")
		}
		if snap.User != nil {
			t.Error("expected no user before Resolve")
		}
	})

	t.Run("resolves to signed out without a keeper", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		snap := store.Resolve(ctx)
		if snap.Loading {
			t.Error("expected Loading false after Resolve")
		}
		if snap.User != nil {
			t.Error("expected no user without a keeper")
		}
	})

	t.Run("adopts a persisted session", func(t *testing.T) {
		keeper := &fakeKeeper{session: testSession("a@b.c", time.Now().Add(time.Hour))}
		store := NewStore(&fakeProvider{}, keeper, nil)

		snap := store.Resolve(ctx)
		if snap.Loading {
			t.Error("expected Loading false after Resolve with a keeper")
		}
		if snap.User == nil || snap.User.Email != "a@b.c" {
			t.Errorf("expected persisted user, got %+v", snap.User)
		}
	})

	t.Run("refreshes an expired persisted session", func(t *testing.T) {
		keeper := &fakeKeeper{session: testSession("a@b.c", time.Now().Add(-time.Hour))}
		provider := &fakeProvider{
			refresh: func(refreshToken string) (*Session, error) {
				if refreshToken != "refresh-a@b.c" {
					t.Errorf("unexpected refresh token: %q", refreshToken)
				}
				return testSession("a@b.c", time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, keeper, nil)

		snap := store.Resolve(ctx)
		if snap.Loading {
			t.Error("expected Loading false after Resolve")
		}
		if snap.User == nil {
			t.Fatal("expected user after refresh")
		}
		if keeper.saves != 1 {
			t.Errorf("expected refreshed session persisted, saves = %d", keeper.saves)
		}
	})

	t.Run("clears a stale session when refresh fails", func(t *testing.T) {
		keeper := &fakeKeeper{session: testSession("a@b.c", time.Now().Add(-time.Hour))}
		provider := &fakeProvider{
			refresh: func(string) (*Session, error) {
				return nil, shared.ErrRefreshFailed
			},
		}
		store := NewStore(provider, keeper, nil)

		snap := store.Resolve(ctx)
		if snap.Loading {
			t.Error("expected Loading false after Resolve")
		}
		if snap.User != nil {
			t.Error("expected no user when refresh fails")
		}
		if keeper.clears != 1 {
			t.Errorf("expected stale session cleared, clears = %d", keeper.clears)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		keeper := &fakeKeeper{session: testSession("a@b.c", time.Now().Add(time.Hour))}
		store := NewStore(&fakeProvider{}, keeper, nil)

		store.Resolve(ctx)
		store.Resolve(ctx)
		if keeper.loads != 1 {
			t.Errorf("expected a single keeper load, got %d", keeper.loads)
		}
	})
}

func TestStoreSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects missing credentials", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		if _, err := store.SignIn(ctx, "", "pw", true); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if _, err := store.SignIn(ctx, "a@b.c", "", true); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("leaves state unchanged on provider failure", func(t *testing.T) {
		provider := &fakeProvider{
			signIn: func(string, string) (*Session, error) {
				return nil, shared.ErrAuthFailed
			},
		}
		store := NewStore(provider, nil, nil)
		store.Resolve(ctx)

		if _, err := store.SignIn(ctx, "a@b.c", "wrong", true); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if snap := store.Current(); snap.User != nil {
			t.Error("expected no user after failed sign-in")
		}
	})

	t.Run("adopts and persists the session on success", func(t *testing.T) {
		keeper := &fakeKeeper{}
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, keeper, nil)

		user, err := store.SignIn(ctx, "a@b.c", "pw", true)
		if err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if user.Email != "a@b.c" {
			t.Errorf("unexpected user: %+v", user)
		}
		if keeper.saves != 1 {
			t.Errorf("expected session persisted, saves = %d", keeper.saves)
		}
		if snap := store.Current(); snap.Loading || snap.User == nil {
			t.Errorf("expected resolved user, got %+v", snap)
		}
	})

	t.Run("skips persistence when asked", func(t *testing.T) {
		keeper := &fakeKeeper{}
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, keeper, nil)

		if _, err := store.SignIn(ctx, "a@b.c", "pw", false); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if keeper.saves != 0 {
			t.Errorf("expected no persistence, saves = %d", keeper.saves)
		}
	})
}

func TestStoreSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("adopts the session when tokens are issued", func(t *testing.T) {
		provider := &fakeProvider{
			signUp: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, nil, nil)

		user, err := store.SignUp(ctx, "new@b.c", "pw", true)
		if err != nil {
			t.Fatalf("SignUp failed: %v", err)
		}
		if user == nil || user.Email != "new@b.c" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("returns no user when confirmation is pending", func(t *testing.T) {
		provider := &fakeProvider{
			signUp: func(string, string) (*Session, error) {
				return &Session{User: User{Email: "new@b.c"}}, nil
			},
		}
		store := NewStore(provider, nil, nil)

		user, err := store.SignUp(ctx, "new@b.c", "pw", true)
		if err != nil {
			t.Fatalf("SignUp failed: %v", err)
		}
		if user != nil {
			t.Errorf("expected nil user for pending confirmation, got %+v", user)
		}
		if snap := store.Current(); snap.User != nil {
			t.Error("expected store state unchanged")
		}
	})
}

func TestStoreSignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("clears state and persistence", func(t *testing.T) {
		keeper := &fakeKeeper{}
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, keeper, nil)
		if _, err := store.SignIn(ctx, "a@b.c", "pw", true); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		if err := store.SignOut(ctx); err != nil {
			t.Errorf("SignOut failed: %v", err)
		}
		if snap := store.Current(); snap.User != nil {
			t.Error("expected no user after sign-out")
		}
		if keeper.clears != 1 {
			t.Errorf("expected persisted session cleared, clears = %d", keeper.clears)
		}
	})

	t.Run("clears local state even when the provider call fails", func(t *testing.T) {
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
			signOut: func(string) error {
				return shared.ErrRequestFailed
			},
		}
		store := NewStore(provider, nil, nil)
		if _, err := store.SignIn(ctx, "a@b.c", "pw", false); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		if err := store.SignOut(ctx); !errors.Is(err, shared.ErrRequestFailed) {
			t.Errorf("expected provider error surfaced, got %v", err)
		}
		if snap := store.Current(); snap.User != nil {
			t.Error("expected no user after sign-out")
		}
	})
}

func TestStoreAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("fails when not signed in", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		if _, err := store.AccessToken(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("returns the held token while valid", func(t *testing.T) {
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, nil, nil)
		if _, err := store.SignIn(ctx, "a@b.c", "pw", false); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		token, err := store.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken failed: %v", err)
		}
		if token != "access-a@b.c" {
			t.Errorf("unexpected token: %q", token)
		}
	})

	t.Run("refreshes an expired token", func(t *testing.T) {
		keeper := &fakeKeeper{}
		refreshed := testSession("a@b.c", time.Now().Add(2*time.Hour))
		refreshed.Token.AccessToken = "fresh-token"

		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(-time.Minute)), nil
			},
			refresh: func(refreshToken string) (*Session, error) {
				if refreshToken != "refresh-a@b.c" {
					t.Errorf("unexpected refresh token: %q", refreshToken)
				}
				return refreshed, nil
			},
		}
		store := NewStore(provider, keeper, nil)
		if _, err := store.SignIn(ctx, "a@b.c", "pw", true); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		token, err := store.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken failed: %v", err)
		}
		if token != "fresh-token" {
			t.Errorf("expected refreshed token, got %q", token)
		}
	})

	t.Run("clears the session when refresh fails", func(t *testing.T) {
		keeper := &fakeKeeper{}
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(-time.Minute)), nil
			},
			refresh: func(string) (*Session, error) {
				return nil, shared.ErrRefreshFailed
			},
		}
		store := NewStore(provider, keeper, nil)
		if _, err := store.SignIn(ctx, "a@b.c", "pw", true); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		if _, err := store.AccessToken(ctx); !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
		if snap := store.Current(); snap.User != nil {
			t.Error("expected session cleared after failed refresh")
		}
		if keeper.clears == 0 {
			t.Error("expected persisted session cleared")
		}
	})
}

func TestStoreSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies subscribers of session changes", func(t *testing.T) {
		provider := &fakeProvider{
			signIn: func(email, password string) (*Session, error) {
				return testSession(email, time.Now().Add(time.Hour)), nil
			},
		}
		store := NewStore(provider, nil, nil)
		changes, release := store.Subscribe()
		defer release()

		if _, err := store.SignIn(ctx, "a@b.c", "pw", false); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		select {
		case snap := <-changes:
			if snap.User == nil || snap.User.Email != "a@b.c" {
				t.Errorf("unexpected snapshot: %+v", snap)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	})

	t.Run("release closes the channel", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		changes, release := store.Subscribe()
		release()

		if _, ok := <-changes; ok {
			t.Error("expected closed channel after release")
		}
	})

	t.Run("subscribing after close yields a closed channel", func(t *testing.T) {
		store := NewStore(&fakeProvider{}, nil, nil)
		store.Close()

		changes, release := store.Subscribe()
		if _, ok := <-changes; ok {
			t.Error("expected closed channel after store close")
		}
		release()
	})
}
