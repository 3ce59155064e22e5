// Package store persists jitter documents and saved settings profiles.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a saved profile does not exist.
var ErrNotFound = errors.New("store: not found")

// DB is the persistence surface used by the service layer.
type DB interface {
	Close() error
	Migrate(ctx context.Context) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	CreateProfile(ctx context.Context, p *SavedProfile) (string, error)
	GetProfile(ctx context.Context, id string) (*SavedProfile, error)
	ListProfiles(ctx context.Context, q ProfilesQuery) (*ProfilesList, error)
	DeleteProfile(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// SavedProfile is a generated settings profile the user chose to keep.
type SavedProfile struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Game         string         `json:"game"`
	Style        string         `json:"style"`
	DeviceID     string         `json:"deviceId"`
	Values       map[string]int `json:"values"`
	GyroMode     string         `json:"gyroMode,omitempty"`
	RotationMode string         `json:"rotationMode,omitempty"`
	Score        int            `json:"score"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ProfilesQuery filters and paginates ListProfiles.
type ProfilesQuery struct {
	Game    string `json:"game,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// ProfilesList is a page of saved profiles.
type ProfilesList struct {
	Profiles   []SavedProfile `json:"profiles"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalPages int            `json:"totalPages"`
}

func (q *ProfilesQuery) normalize() {
	if q.PerPage <= 0 {
		q.PerPage = 50
	}
	if q.PerPage > 500 {
		q.PerPage = 500
	}
	if q.Page <= 0 {
		q.Page = 1
	}
}
