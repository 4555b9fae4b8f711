package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecom-backend/internal/identity"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	// AddOrUpdate upserts the (owner, product) line item. An existing
	// quantity is overwritten, not incremented.
	AddOrUpdate(ctx context.Context, owner identity.Owner, productID string, quantity int) (*Item, error)
	ListByOwner(ctx context.Context, owner identity.Owner) ([]Item, error)
	Remove(ctx context.Context, owner identity.Owner, productID string) (bool, error)
	Clear(ctx context.Context, owner identity.Owner) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// ownerCols returns the nullable user/session pair stored for an owner.
func ownerCols(owner identity.Owner) (*string, *string) {
	if owner.IsAnonymous() {
		k := owner.SessionKey()
		return nil, &k
	}
	u := owner.UserID()
	return &u, nil
}

func (r *PGRepo) AddOrUpdate(ctx context.Context, owner identity.Owner, productID string, quantity int) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).
		Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	userID, sessionKey := ownerCols(owner)
	var it Item
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (id, user_id, session_key, product_id, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		ON CONFLICT (owner_key, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, COALESCE(user_id::text,''), COALESCE(session_key,''), product_id, quantity, created_at, updated_at
	`, uuid.NewString(), userID, sessionKey, productID, quantity).
		Scan(&it.ID, &it.UserID, &it.SessionKey, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PGRepo) ListByOwner(ctx context.Context, owner identity.Owner) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userID, sessionKey := ownerCols(owner)
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(user_id::text,''), COALESCE(session_key,''), product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE ($1::text IS NOT NULL AND user_id::text = $1)
		   OR ($1::text IS NULL AND session_key = $2)
		ORDER BY created_at
	`, userID, sessionKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.SessionKey, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PGRepo) Remove(ctx context.Context, owner identity.Owner, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userID, sessionKey := ownerCols(owner)
	cmd, err := r.db.Exec(ctx, `
		DELETE FROM cart_items
		WHERE product_id = $3
		  AND (($1::text IS NOT NULL AND user_id::text = $1)
		    OR ($1::text IS NULL AND session_key = $2))
	`, userID, sessionKey, productID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) Clear(ctx context.Context, owner identity.Owner) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userID, sessionKey := ownerCols(owner)
	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items
		WHERE ($1::text IS NOT NULL AND user_id::text = $1)
		   OR ($1::text IS NULL AND session_key = $2)
	`, userID, sessionKey)
	return err
}
