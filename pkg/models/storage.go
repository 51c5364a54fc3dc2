package models

import "time"

// Storage item statuses, following the guest's stay.
const (
	StorageCheckIn  = "check_in"
	StorageInHouse  = "in_house"
	StorageCheckOut = "check_out"
)

// StorageItem is a piece of luggage or property held by the front desk.
type StorageItem struct {
	ID         string    `json:"id"`
	ItemName   string    `json:"item_name"`
	GuestName  *string   `json:"guest_name,omitempty"`
	RoomNumber *string   `json:"room_number,omitempty"`
	Status     string    `json:"status"`
	StoredBy   string    `json:"stored_by"`
	Location   string    `json:"location"`
	ImageURL   *string   `json:"image_url,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	StoredAt   time.Time `json:"stored_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StorageFilters contains filtering options for the storage log.
type StorageFilters struct {
	Status string // "" or "all" means any status
	Search string // Matches item, guest name or room
}

// CreateStorageItemRequest contains fields for logging a stored item.
type CreateStorageItemRequest struct {
	ItemName   string  `json:"item_name"`
	GuestName  *string `json:"guest_name"`
	RoomNumber *string `json:"room_number"`
	Status     string  `json:"status"`
	StoredBy   string  `json:"stored_by"`
	Location   string  `json:"location"`
	ImageURL   *string `json:"image_url"`
	Notes      *string `json:"notes"`
}

// UpdateStorageItemRequest is a partial update; nil fields are left unchanged.
type UpdateStorageItemRequest struct {
	ItemName   *string `json:"item_name"`
	GuestName  *string `json:"guest_name"`
	RoomNumber *string `json:"room_number"`
	Status     *string `json:"status"`
	Location   *string `json:"location"`
	ImageURL   *string `json:"image_url"`
	Notes      *string `json:"notes"`
}

// StorageCounts is the per-status tally shown above the storage log.
type StorageCounts struct {
	Total    int `json:"total"`
	CheckIn  int `json:"check_in"`
	InHouse  int `json:"in_house"`
	CheckOut int `json:"check_out"`
}
