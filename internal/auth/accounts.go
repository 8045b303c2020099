package auth

import (
	"context"
	"errors"
	"fmt"

	"ripple/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// UsersCollection is where password accounts live in the document store.
const UsersCollection = "users"

// ErrInvalidCredentials is returned when email/password sign-in fails.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when signing up with an email that already has
// an account.
var ErrEmailTaken = errors.New("an account with this email already exists")

// CreateAccount stores a new password account and returns its principal. The
// account document holds only the email and the bcrypt hash; the UID is the
// store-assigned document identifier.
func CreateAccount(ctx context.Context, st store.Store, email, password string) (Principal, error) {
	existing, err := st.Get(ctx, store.NewQuery(UsersCollection).Where("email", store.OpEqual, email))
	if err != nil {
		return Principal{}, fmt.Errorf("sign up: %w", err)
	}
	if len(existing) > 0 {
		return Principal{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, fmt.Errorf("sign up: %w", err)
	}

	uid, err := st.Add(ctx, UsersCollection, store.WireDoc{
		"email":        email,
		"passwordHash": string(hash),
		"createdAt":    store.ServerTimestamp,
	})
	if err != nil {
		return Principal{}, fmt.Errorf("sign up: %w", err)
	}

	return Principal{UID: uid, Email: email}, nil
}

// VerifyPassword checks an email/password pair against the stored account and
// returns its principal.
func VerifyPassword(ctx context.Context, st store.Store, email, password string) (Principal, error) {
	docs, err := st.Get(ctx, store.NewQuery(UsersCollection).Where("email", store.OpEqual, email))
	if err != nil {
		return Principal{}, fmt.Errorf("sign in: %w", err)
	}
	if len(docs) == 0 {
		return Principal{}, ErrInvalidCredentials
	}

	hash, _ := docs[0].Data["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{UID: docs[0].ID, Email: email}, nil
}
