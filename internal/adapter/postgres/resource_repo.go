package postgres

import (
	"context"

	"zerohunger/internal/domain"
)

// CreateResource inserts a new resource listing.
func (d *DB) CreateResource(ctx context.Context, r domain.Resource) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO resources(name, phone, email, location, food_type, quantity, notes, submitted_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id;",
		r.Name, r.Phone, r.Email, r.Location, r.FoodType, r.Quantity, r.Notes, r.SubmittedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, storeError("create resource", err)
	}
	return id, nil
}

// ListResources returns the most recent resources up to limit.
func (d *DB) ListResources(ctx context.Context, limit int) ([]domain.Resource, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, name, phone, email, location, food_type, quantity, notes, submitted_at FROM resources ORDER BY submitted_at DESC, id DESC LIMIT $1;", limit)
	if err != nil {
		return nil, storeError("list resources", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Resource, 0, min(limit, 64))
	for rows.Next() {
		var r domain.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.Phone, &r.Email, &r.Location, &r.FoodType, &r.Quantity, &r.Notes, &r.SubmittedAt); err != nil {
			return nil, storeError("list resources", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list resources", err)
	}
	return out, nil
}
