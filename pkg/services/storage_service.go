package services

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/thefitz/companion/pkg/models"
)

var storageColumns = []string{
	"id", "item_name", "guest_name", "room_number", "status", "stored_by", "location",
	"image_url", "notes", "stored_at", "updated_at",
}

var storageStatuses = map[string]bool{
	models.StorageCheckIn:  true,
	models.StorageInHouse:  true,
	models.StorageCheckOut: true,
}

// StorageService manages the luggage and item storage log.
type StorageService struct {
	db *stdsql.DB
}

// NewStorageService creates a new StorageService
func NewStorageService(db *stdsql.DB) *StorageService {
	return &StorageService{db: db}
}

// List returns stored items, most recent first.
func (s *StorageService) List(ctx context.Context, filters models.StorageFilters) ([]*models.StorageItem, error) {
	b := postgres()
	t := b.Table("storage_items").As("s")
	sel := b.Select(columns(t, storageColumns)...).From(t)
	if filters.Status != "" && filters.Status != "all" {
		sel.Where(sql.EQ(t.C("status"), filters.Status))
	}
	if q := strings.TrimSpace(filters.Search); q != "" {
		sel.Where(sql.Or(
			sql.ContainsFold(t.C("item_name"), q),
			sql.ContainsFold(t.C("guest_name"), q),
			sql.ContainsFold(t.C("room_number"), q),
		))
	}
	sel.OrderBy(t.C("stored_at") + " DESC")

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage items: %w", err)
	}
	defer rows.Close()

	items := []*models.StorageItem{}
	for rows.Next() {
		item, err := scanStorageItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan storage item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Get returns one stored item.
func (s *StorageService) Get(ctx context.Context, id string) (*models.StorageItem, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	b := postgres()
	t := b.Table("storage_items").As("s")
	query, args := b.Select(columns(t, storageColumns)...).From(t).Where(sql.EQ(t.C("id"), id)).Query()

	item, err := scanStorageItem(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get storage item: %w", err)
	}
	return item, nil
}

// Create logs a newly stored item. Status defaults to in_house.
func (s *StorageService) Create(ctx context.Context, req models.CreateStorageItemRequest) (*models.StorageItem, error) {
	switch {
	case strings.TrimSpace(req.ItemName) == "":
		return nil, NewValidationError("item_name", "required")
	case strings.TrimSpace(req.StoredBy) == "":
		return nil, NewValidationError("stored_by", "required")
	case strings.TrimSpace(req.Location) == "":
		return nil, NewValidationError("location", "required")
	}
	status := req.Status
	if status == "" {
		status = models.StorageInHouse
	}
	if !storageStatuses[status] {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	id := uuid.New().String()
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storage_items (id, item_name, guest_name, room_number, status, stored_by, location,
			image_url, notes, stored_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		id, req.ItemName, req.GuestName, req.RoomNumber, status, req.StoredBy, req.Location,
		req.ImageURL, req.Notes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage item: %w", err)
	}
	return s.Get(ctx, id)
}

// Update applies a partial update.
func (s *StorageService) Update(ctx context.Context, id string, req models.UpdateStorageItemRequest) (*models.StorageItem, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	if req.Status != nil && !storageStatuses[*req.Status] {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", *req.Status))
	}
	if req.ItemName != nil && strings.TrimSpace(*req.ItemName) == "" {
		return nil, NewValidationError("item_name", "must not be empty")
	}

	u := postgres().Update("storage_items")
	for col, v := range map[string]*string{
		"item_name":   req.ItemName,
		"guest_name":  req.GuestName,
		"room_number": req.RoomNumber,
		"status":      req.Status,
		"location":    req.Location,
		"image_url":   req.ImageURL,
		"notes":       req.Notes,
	} {
		if v != nil {
			u.Set(col, *v)
		}
	}
	u.Set("updated_at", time.Now())
	u.Where(sql.EQ("id", id))

	if err := execUpdate(ctx, s.db, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update storage item: %w", err)
	}
	return s.Get(ctx, id)
}

// Counts tallies stored items per status.
func (s *StorageService) Counts(ctx context.Context) (*models.StorageCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, count(*) FROM storage_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count storage items: %w", err)
	}
	defer rows.Close()

	counts := &models.StorageCounts{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan storage count: %w", err)
		}
		counts.Total += n
		switch status {
		case models.StorageCheckIn:
			counts.CheckIn = n
		case models.StorageInHouse:
			counts.InHouse = n
		case models.StorageCheckOut:
			counts.CheckOut = n
		}
	}
	return counts, rows.Err()
}

func scanStorageItem(row rowScanner) (*models.StorageItem, error) {
	var it models.StorageItem
	err := row.Scan(&it.ID, &it.ItemName, &it.GuestName, &it.RoomNumber, &it.Status, &it.StoredBy,
		&it.Location, &it.ImageURL, &it.Notes, &it.StoredAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
