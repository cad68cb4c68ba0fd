package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ShaneDT1126/opswerk-assessment/models"
)

// Memory is an in-memory Store with the same semantics as Postgres. It backs
// the handler tests and the "memory" database driver.
type Memory struct {
	mu sync.RWMutex

	songs          map[int64]models.Song
	playlists      map[int64]models.Playlist // Songs field unused here
	playlistSongs  map[int64][]int64         // ordered membership
	nextSongID     int64
	nextPlaylistID int64
}

func NewMemory() *Memory {
	return &Memory{
		songs:         map[int64]models.Song{},
		playlists:     map[int64]models.Playlist{},
		playlistSongs: map[int64][]int64{},
	}
}

func (m *Memory) Close() {}

func (m *Memory) CreateSong(_ context.Context, s *models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSongID++
	now := time.Now().UTC()
	s.ID = m.nextSongID
	s.CreatedAt = now
	s.UpdatedAt = now
	m.songs[s.ID] = *s
	return nil
}

func (m *Memory) ListSongs(_ context.Context, page, limit int) ([]models.Song, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.Song, 0, len(m.songs))
	for _, s := range m.songs {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, limit), len(all), nil
}

func (m *Memory) GetSong(_ context.Context, id int64) (*models.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.songs[id]
	if !ok {
		return nil, ErrSongNotFound
	}
	return &s, nil
}

func (m *Memory) GetSongsByIDs(_ context.Context, ids []int64) ([]models.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	songs := []models.Song{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if s, ok := m.songs[id]; ok {
			songs = append(songs, s)
		}
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

func (m *Memory) UpdateSong(_ context.Context, s *models.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.songs[s.ID]
	if !ok {
		return ErrSongNotFound
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	if s.UpdatedAt.Before(existing.UpdatedAt) {
		s.UpdatedAt = existing.UpdatedAt
	}
	m.songs[s.ID] = *s
	return nil
}

func (m *Memory) DeleteSong(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.songs[id]; !ok {
		return ErrSongNotFound
	}
	delete(m.songs, id)

	// Drop the song from every playlist, keeping the remaining order.
	for playlistID, ids := range m.playlistSongs {
		kept := ids[:0:0]
		for _, songID := range ids {
			if songID != id {
				kept = append(kept, songID)
			}
		}
		m.playlistSongs[playlistID] = kept
	}
	return nil
}

func (m *Memory) CreatePlaylist(_ context.Context, p *models.Playlist, songIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if missing := m.missingSongs(songIDs); len(missing) > 0 {
		return &MissingSongsError{IDs: missing}
	}

	m.nextPlaylistID++
	now := time.Now().UTC()
	p.ID = m.nextPlaylistID
	p.CreatedAt = now
	p.UpdatedAt = now
	m.playlists[p.ID] = models.Playlist{ID: p.ID, Name: p.Name, CreatedAt: now, UpdatedAt: now}
	m.playlistSongs[p.ID] = append([]int64{}, songIDs...)
	return nil
}

func (m *Memory) ListPlaylists(_ context.Context, page, limit int) ([]models.Playlist, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.Playlist, 0, len(m.playlists))
	for _, p := range m.playlists {
		p.Songs = m.memberSongs(p.ID)
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, limit), len(all), nil
}

func (m *Memory) GetPlaylist(_ context.Context, id int64) (*models.Playlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.playlists[id]
	if !ok {
		return nil, ErrPlaylistNotFound
	}
	p.Songs = m.memberSongs(id)
	return &p, nil
}

func (m *Memory) UpdatePlaylist(_ context.Context, id int64, name *string, songIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	// A rejected membership must leave the name untouched too, so validate
	// before writing anything.
	if songIDs != nil {
		if missing := m.missingSongs(songIDs); len(missing) > 0 {
			return &MissingSongsError{IDs: missing}
		}
	}

	changed := false
	if name != nil {
		p.Name = *name
		changed = true
	}
	if songIDs != nil {
		m.playlistSongs[id] = append([]int64{}, songIDs...)
		changed = true
	}
	if changed {
		p.UpdatedAt = time.Now().UTC()
		m.playlists[id] = p
	}
	return nil
}

func (m *Memory) DeletePlaylist(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[id]; !ok {
		return ErrPlaylistNotFound
	}
	delete(m.playlists, id)
	delete(m.playlistSongs, id)
	return nil
}

// memberSongs resolves the ordered membership of a playlist. Callers hold
// the lock.
func (m *Memory) memberSongs(playlistID int64) []models.Song {
	songs := []models.Song{}
	for _, songID := range m.playlistSongs[playlistID] {
		if s, ok := m.songs[songID]; ok {
			songs = append(songs, s)
		}
	}
	return songs
}

// missingSongs returns the distinct ids with no matching song. Callers hold
// the lock.
func (m *Memory) missingSongs(songIDs []int64) []int64 {
	missing := []int64{}
	seen := map[int64]bool{}
	for _, id := range songIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := m.songs[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func paginate[T any](all []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]T{}, all[start:end]...)
}
