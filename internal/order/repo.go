package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ecom-backend/internal/database"
	"ecom-backend/internal/identity"
)

type Repository interface {
	// Place converts the owner's cart into an order inside one serializable
	// transaction: lock products, verify stock, snapshot prices, decrement
	// stock, delete the consumed cart rows. Nothing persists on failure.
	Place(ctx context.Context, owner identity.Owner) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByOwner(ctx context.Context, owner identity.Owner, limit, offset int) ([]Order, error)
	// UpdateStatus persists the transition only if the order still holds
	// expected; a zero row count with an existing order means a lost race.
	UpdateStatus(ctx context.Context, id string, expected, next Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func ownerCols(owner identity.Owner) (*string, *string) {
	if owner.IsAnonymous() {
		k := owner.SessionKey()
		return nil, &k
	}
	u := owner.UserID()
	return &u, nil
}

type cartLine struct {
	productID string
	quantity  int
	price     decimal.Decimal
	stock     int
}

func (r *PGRepo) Place(ctx context.Context, owner identity.Owner) (*Order, error) {
	userID, sessionKey := ownerCols(owner)
	var placed *Order

	err := database.WithRetry(ctx, r.db, database.TxOptions{
		IsoLevel:   pgx.Serializable,
		MaxRetries: 3,
	}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT ci.product_id, ci.quantity, p.price, p.stock
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE (($1::text IS NOT NULL AND ci.user_id::text = $1)
			   OR ($1::text IS NULL AND ci.session_key = $2))
			ORDER BY ci.product_id
			FOR UPDATE OF p
		`, userID, sessionKey)
		if err != nil {
			return err
		}
		var lines []cartLine
		for rows.Next() {
			var l cartLine
			if err := rows.Scan(&l.productID, &l.quantity, &l.price, &l.stock); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		for _, l := range lines {
			if l.stock < l.quantity {
				return &InsufficientStockError{ProductID: l.productID}
			}
		}

		o := &Order{ID: uuid.NewString(), Status: StatusPlaced}
		if userID != nil {
			o.UserID = *userID
		} else {
			o.SessionKey = *sessionKey
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (id, user_id, session_key, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,NOW(),NOW())
			RETURNING created_at, updated_at
		`, o.ID, userID, sessionKey, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
			return err
		}

		for _, l := range lines {
			it := Item{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: l.productID,
				Quantity:  l.quantity,
				Price:     l.price,
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price)
				VALUES ($1,$2,$3,$4,$5)
			`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price); err != nil {
				return err
			}
			o.Items = append(o.Items, it)

			tag, err := tx.Exec(ctx, `
				UPDATE products
				SET stock = stock - $1, updated_at = NOW()
				WHERE id = $2 AND stock >= $1
			`, l.quantity, l.productID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return &InsufficientStockError{ProductID: l.productID}
			}
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items
			WHERE (($1::text IS NOT NULL AND user_id::text = $1)
			   OR ($1::text IS NULL AND session_key = $2))
		`, userID, sessionKey); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	if err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(user_id::text,''), COALESCE(session_key,''), status, created_at, updated_at
		FROM orders WHERE id=$1
	`, id).Scan(&o.ID, &o.UserID, &o.SessionKey, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id=$1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (r *PGRepo) ListByOwner(ctx context.Context, owner identity.Owner, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	userID, sessionKey := ownerCols(owner)
	rows, err := r.db.Query(ctx, `
		SELECT id, COALESCE(user_id::text,''), COALESCE(session_key,''), status, created_at, updated_at
		FROM orders
		WHERE (($1::text IS NOT NULL AND user_id::text = $1)
		   OR ($1::text IS NULL AND session_key = $2))
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, userID, sessionKey, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.SessionKey, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, expected, next Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, expected, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		// concurrent transition won; the expected status is gone
		return ErrInvalidStatus
	}
	return nil
}
