// Package store owns persistence for songs and playlists. Identifiers and
// the created/updated timestamps are assigned here on write, not by callers.
package store

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/ShaneDT1126/opswerk-assessment/models"
)

var (
	ErrSongNotFound     = errors.New("song not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// MissingSongsError is returned when a playlist membership write references
// song ids that do not exist.
type MissingSongsError struct {
	IDs []int64
}

func (e *MissingSongsError) Error() string {
	return fmt.Sprintf("songs not found for ids: %v", e.IDs)
}

// Store is the persistence interface the handlers talk to. Postgres backs it
// in production; the memory implementation backs tests and local runs.
type Store interface {
	CreateSong(ctx context.Context, s *models.Song) error
	ListSongs(ctx context.Context, page, limit int) ([]models.Song, int, error)
	GetSong(ctx context.Context, id int64) (*models.Song, error)
	// GetSongsByIDs returns the distinct songs matching ids. Ids that do not
	// resolve are simply absent from the result.
	GetSongsByIDs(ctx context.Context, ids []int64) ([]models.Song, error)
	UpdateSong(ctx context.Context, s *models.Song) error
	DeleteSong(ctx context.Context, id int64) error

	// CreatePlaylist inserts the playlist and its ordered membership.
	CreatePlaylist(ctx context.Context, p *models.Playlist, songIDs []int64) error
	ListPlaylists(ctx context.Context, page, limit int) ([]models.Playlist, int, error)
	GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error)
	// UpdatePlaylist updates the name and/or replaces the membership in a
	// single atomic write: when the membership references unknown song ids,
	// nothing changes, not even the name. A nil name keeps the current name;
	// a nil songIDs keeps the current membership, an empty slice clears it.
	// Duplicates in songIDs are kept, in order.
	UpdatePlaylist(ctx context.Context, id int64, name *string, songIDs []int64) error
	DeletePlaylist(ctx context.Context, id int64) error

	Close()
}
