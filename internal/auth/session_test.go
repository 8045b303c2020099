package auth

import (
	"context"
	"testing"

	"ripple/internal/store/gormstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAccountStore(t *testing.T) *gormstore.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gormstore.Migrate(db))

	return gormstore.New(db, nil)
}

func TestSessionStartsSignedOut(t *testing.T) {
	s := NewSession(setupAccountStore(t))

	_, ok := s.Current(context.Background())
	assert.False(t, ok)
}

func TestSignInAnonymously(t *testing.T) {
	s := NewSession(setupAccountStore(t))

	p, err := s.SignInAnonymously(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, p.UID)
	assert.True(t, p.Anonymous)
	assert.Empty(t, p.Email)

	current, ok := s.Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, p, current)

	// Every anonymous sign-in mints a distinct principal.
	again, err := s.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, p.UID, again.UID)
}

func TestSignUpThenSignIn(t *testing.T) {
	st := setupAccountStore(t)
	s := NewSession(st)

	created, err := s.SignUp(context.Background(), "dana@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, "dana@example.com", created.Email)
	assert.False(t, created.Anonymous)

	s.SignOut()
	_, ok := s.Current(context.Background())
	require.False(t, ok)

	back, err := s.SignInWithPassword(context.Background(), "dana@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.UID, back.UID)
}

func TestSignUpRejectsTakenEmail(t *testing.T) {
	st := setupAccountStore(t)
	s := NewSession(st)

	_, err := s.SignUp(context.Background(), "dana@example.com", "hunter22")
	require.NoError(t, err)

	_, err = s.SignUp(context.Background(), "dana@example.com", "different")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	st := setupAccountStore(t)
	s := NewSession(st)

	_, err := s.SignUp(context.Background(), "dana@example.com", "hunter22")
	require.NoError(t, err)
	s.SignOut()

	_, err = s.SignInWithPassword(context.Background(), "dana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.SignInWithPassword(context.Background(), "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, ok := s.Current(context.Background())
	assert.False(t, ok, "failed sign-in must not establish a principal")
}

func TestOnChangeFiresImmediatelyAndOnTransitions(t *testing.T) {
	s := NewSession(setupAccountStore(t))

	var seen []*Principal
	cancel := s.OnChange(func(p *Principal) { seen = append(seen, p) })

	require.Len(t, seen, 1)
	assert.Nil(t, seen[0], "initial callback reports the signed-out state")

	p, err := s.SignInAnonymously(context.Background())
	require.NoError(t, err)
	require.Len(t, seen, 2)
	require.NotNil(t, seen[1])
	assert.Equal(t, p.UID, seen[1].UID)

	s.SignOut()
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])

	cancel()
	_, err = s.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 3, "cancelled listener must not fire")
}

func TestContextIdentity(t *testing.T) {
	var id ContextIdentity

	_, ok := id.Current(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UID: "u1"})
	p, ok := id.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UID)
}

func TestStaticIdentity(t *testing.T) {
	_, ok := NewStatic(nil).Current(context.Background())
	assert.False(t, ok)

	p, ok := NewStatic(&Principal{UID: "fixed"}).Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, "fixed", p.UID)
}
