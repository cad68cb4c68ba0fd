package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Playlist represents a row in the t_playlists table together with its
// member songs, in playback order. The same song may appear more than once.
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Songs     []Song    `json:"songs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlaylistSong represents a row in the t_playlist_songs join table.
// Position makes the ordering of the association explicit.
type PlaylistSong struct {
	PlaylistID int64 `json:"playlist_id"`
	SongID     int64 `json:"song_id"`
	Position   int   `json:"position"`
}

// TotalDuration returns the summed length of the member songs in seconds.
// Recomputed on every call, so it always matches the current membership.
func (p *Playlist) TotalDuration() int {
	total := 0
	for _, s := range p.Songs {
		total += s.Length
	}
	return total
}

// TotalPrice returns the summed price of the member songs.
func (p *Playlist) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Songs {
		total = total.Add(s.Price)
	}
	return total
}

// SongIDs returns the member song ids in playlist order.
func (p *Playlist) SongIDs() []int64 {
	ids := make([]int64, len(p.Songs))
	for i, s := range p.Songs {
		ids[i] = s.ID
	}
	return ids
}
