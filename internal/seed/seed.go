// Package seed fills the store with fake data for local development.
package seed

import (
	"context"
	"fmt"

	"ripple/internal/auth"
	"ripple/internal/posts"
	"ripple/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// Posts creates authors*perAuthor posts through the mutation gateway, each
// author an anonymous principal, so seeded data went through the same write
// path as real traffic.
func Posts(ctx context.Context, st store.Store, collection string, authors, perAuthor int) error {
	for a := 0; a < authors; a++ {
		session := auth.NewSession(st)
		if _, err := session.SignInAnonymously(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		gateway := posts.NewGateway(st, session, collection)
		for i := 0; i < perAuthor; i++ {
			if err := gateway.Create(ctx, gofakeit.Sentence(gofakeit.Number(3, 12))); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
	}
	return nil
}
