package domain

import "time"

// MaxPhotoBytes caps a decoded photo upload at 10 MiB.
const MaxPhotoBytes = 10 * 1024 * 1024

type Photo struct {
	ID          string     `json:"id"`
	EventID     string     `json:"event_id"`
	StoragePath string     `json:"storage_path"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"-"`
}
