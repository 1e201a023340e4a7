package app

import (
	"context"
	"html"
	"strings"
	"time"

	"zerohunger/internal/domain"
)

// MaxResourceList caps how many resources a listing returns.
const MaxResourceList = 500

// Column limits for resource fields, in characters.
const (
	maxNameLen     = 255
	maxPhoneLen    = 50
	maxEmailLen    = 255
	maxLocationLen = 255
	maxFoodTypeLen = 255
	maxQuantityLen = 100
	maxNotesLen    = 1000
)

// ErrResourceFieldsMissing rejects submissions without the required fields.
var ErrResourceFieldsMissing = &ValidationError{Message: "name, location, and food_type are required"}

// ResourceSubmission is an untrusted resource listing from a client.
type ResourceSubmission struct {
	Name     string
	Phone    string
	Email    string
	Location string
	FoodType string
	Quantity string
	Notes    string
}

// ResourceService encapsulates donated-food listing use cases.
type ResourceService struct {
	repo domain.ResourceRepository
	now  func() time.Time
}

// NewResourceService creates a ResourceService backed by the given repository.
func NewResourceService(repo domain.ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo, now: time.Now}
}

// Submit validates, escapes and stores a listing, returning its id.
func (s *ResourceService) Submit(ctx context.Context, sub ResourceSubmission) (int64, error) {
	if strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Location) == "" || strings.TrimSpace(sub.FoodType) == "" {
		return 0, ErrResourceFieldsMissing
	}

	r := domain.Resource{
		Name:        clean(sub.Name, maxNameLen),
		Phone:       clean(sub.Phone, maxPhoneLen),
		Email:       clean(sub.Email, maxEmailLen),
		Location:    clean(sub.Location, maxLocationLen),
		FoodType:    clean(sub.FoodType, maxFoodTypeLen),
		Quantity:    clean(sub.Quantity, maxQuantityLen),
		Notes:       clean(sub.Notes, maxNotesLen),
		SubmittedAt: s.now().UTC(),
	}

	ctx, cancel := storeContext(ctx)
	defer cancel()
	id, err := s.repo.CreateResource(ctx, r)
	if err != nil {
		return 0, persistence("create resource", err)
	}
	return id, nil
}

// List returns the most recent listings, newest first.
func (s *ResourceService) List(ctx context.Context) ([]domain.Resource, error) {
	ctx, cancel := storeContext(ctx)
	defer cancel()
	items, err := s.repo.ListResources(ctx, MaxResourceList)
	if err != nil {
		return nil, persistence("list resources", err)
	}
	if items == nil {
		items = []domain.Resource{}
	}
	return items, nil
}

// clean HTML-escapes v and truncates the result to limit runes.
func clean(v string, limit int) string {
	v = html.EscapeString(v)
	if r := []rune(v); len(r) > limit {
		v = string(r[:limit])
	}
	return v
}
