package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mithaiwala/sweetshop/internal/model"
)

// sweetColumns is the column list for every sweet SELECT, in scan order.
const sweetColumns = `id, name, category, price, quantity, image_url, created_at, updated_at`

// scanSweet decodes one row into a Sweet. Fails if the row shape does not
// match the column list.
func scanSweet(row interface{ Scan(...any) error }) (*model.Sweet, error) {
	s := &model.Sweet{}
	var imageURL sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Quantity, &imageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		s.ImageURL = &imageURL.String
	}
	return s, nil
}

// CreateSweet creates a new sweet and returns the full record.
func CreateSweet(ctx context.Context, db *sql.DB, name, category string, price float64, quantity int, imageURL *string) (*model.Sweet, error) {
	var image sql.NullString
	if imageURL != nil {
		image = sql.NullString{String: *imageURL, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO sweets (name, category, price, quantity, image_url) VALUES (?, ?, ?, ?, ?)`,
		name, category, price, quantity, image,
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sweet id: %w", err)
	}

	return GetSweet(ctx, db, id)
}

// GetSweet returns a sweet by ID, or nil if it does not exist.
func GetSweet(ctx context.Context, db *sql.DB, id int64) (*model.Sweet, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets WHERE id = ?`, id,
	)
	sweet, err := scanSweet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sweet: %w", err)
	}
	return sweet, nil
}

// ListSweets returns all sweets, newest first.
func ListSweets(ctx context.Context, db *sql.DB) ([]model.Sweet, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sweetColumns+` FROM sweets ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sweets: %w", err)
	}
	defer rows.Close()

	return collectSweets(rows)
}

// SweetFilter holds optional search constraints. Zero-value fields impose no
// constraint; supplied fields combine with AND.
type SweetFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
}

// SearchSweets returns the sweets matching the filter, newest first. The
// query is assembled from a parameterized clause list; filter values are
// never interpolated into SQL text.
func SearchSweets(ctx context.Context, db *sql.DB, filter SweetFilter) ([]model.Sweet, error) {
	var clauses []string
	var args []any

	if filter.Name != "" {
		clauses = append(clauses, `LOWER(name) LIKE LOWER(?)`)
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		clauses = append(clauses, `LOWER(category) = LOWER(?)`)
		args = append(args, filter.Category)
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, `price >= ?`)
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, `price <= ?`)
		args = append(args, *filter.MaxPrice)
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching sweets: %w", err)
	}
	defer rows.Close()

	return collectSweets(rows)
}

// SweetUpdate holds partial update fields. Nil pointers leave the column
// untouched. A non-nil ImageURL with Valid=false clears the image reference.
type SweetUpdate struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
	ImageURL *sql.NullString
}

// UpdateSweet applies a partial update and returns the resulting record.
// An empty update is a plain read: it does not touch updated_at. Any
// non-empty update refreshes updated_at. Returns ErrNotFound if the id
// does not exist.
func UpdateSweet(ctx context.Context, db *sql.DB, id int64, update SweetUpdate) (*model.Sweet, error) {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, `name = ?`)
		args = append(args, *update.Name)
	}
	if update.Category != nil {
		sets = append(sets, `category = ?`)
		args = append(args, *update.Category)
	}
	if update.Price != nil {
		sets = append(sets, `price = ?`)
		args = append(args, *update.Price)
	}
	if update.Quantity != nil {
		sets = append(sets, `quantity = ?`)
		args = append(args, *update.Quantity)
	}
	if update.ImageURL != nil {
		sets = append(sets, `image_url = ?`)
		args = append(args, *update.ImageURL)
	}

	if len(sets) == 0 {
		sweet, err := GetSweet(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if sweet == nil {
			return nil, ErrNotFound
		}
		return sweet, nil
	}

	sets = append(sets, `updated_at = CURRENT_TIMESTAMP`)
	args = append(args, id)

	result, err := db.ExecContext(ctx,
		`UPDATE sweets SET `+strings.Join(sets, `, `)+` WHERE id = ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating sweet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking updated rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return GetSweet(ctx, db, id)
}

// DeleteSweet removes a sweet. Returns ErrNotFound if the id does not exist.
func DeleteSweet(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM sweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting sweet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurchaseSweet decrements a sweet's quantity by amount. The read and the
// guarded write run in one transaction so the quantity can never go negative
// under concurrent purchases. Returns ErrNotFound if the id does not exist
// and ErrInsufficientStock (with no write) if amount exceeds current stock.
func PurchaseSweet(ctx context.Context, db *sql.DB, id int64, amount int) (*model.Sweet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM sweets WHERE id = ?`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking current quantity: %w", err)
	}

	if current < amount {
		return nil, ErrInsufficientStock
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE sweets SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("decrementing quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking decremented rows: %w", err)
	}
	if affected == 0 {
		// Lost a race between the read and the guarded write.
		return nil, ErrInsufficientStock
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase: %w", err)
	}

	return GetSweet(ctx, db, id)
}

// RestockSweet increments a sweet's quantity by amount. There is no upper
// bound on the resulting quantity. Returns ErrNotFound if the id does not
// exist.
func RestockSweet(ctx context.Context, db *sql.DB, id int64, amount int) (*model.Sweet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE sweets SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		amount, id,
	)
	if err != nil {
		return nil, fmt.Errorf("incrementing quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking incremented rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return GetSweet(ctx, db, id)
}

// collectSweets drains rows into a slice.
func collectSweets(rows *sql.Rows) ([]model.Sweet, error) {
	var sweets []model.Sweet
	for rows.Next() {
		sweet, err := scanSweet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sweet: %w", err)
		}
		sweets = append(sweets, *sweet)
	}
	return sweets, rows.Err()
}
