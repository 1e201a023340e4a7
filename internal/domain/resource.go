package domain

import (
	"context"
	"time"
)

// Resource is a donated-food listing.
type Resource struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	FoodType    string    `json:"food_type"`
	Quantity    string    `json:"quantity"`
	Notes       string    `json:"notes"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ResourceRepository is the port for resource persistence.
type ResourceRepository interface {
	CreateResource(ctx context.Context, r Resource) (int64, error)
	// ListResources returns the newest resources first, at most limit rows.
	ListResources(ctx context.Context, limit int) ([]Resource, error)
}
