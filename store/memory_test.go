package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShaneDT1126/opswerk-assessment/models"
)

func newSong(title, price string, length int) *models.Song {
	return &models.Song{
		Title:        title,
		Length:       length,
		DateReleased: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Price:        decimal.RequireFromString(price),
	}
}

func TestMemory_SongCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		s := newSong("First", "4.99", 180)
		require.NoError(t, m.CreateSong(ctx, s))

		assert.Equal(t, int64(1), s.ID)
		assert.False(t, s.CreatedAt.IsZero())
		assert.Equal(t, s.CreatedAt, s.UpdatedAt)
	})

	t.Run("get returns the stored song", func(t *testing.T) {
		got, err := m.GetSong(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "First", got.Title)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("4.99")))
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := m.GetSong(ctx, 999)
		assert.ErrorIs(t, err, ErrSongNotFound)
	})

	t.Run("update keeps created_at and advances updated_at", func(t *testing.T) {
		s, err := m.GetSong(ctx, 1)
		require.NoError(t, err)
		created := s.CreatedAt

		time.Sleep(5 * time.Millisecond)
		s.Title = "First (remastered)"
		require.NoError(t, m.UpdateSong(ctx, s))

		assert.Equal(t, created, s.CreatedAt)
		assert.True(t, s.UpdatedAt.After(created))
	})

	t.Run("update unknown id", func(t *testing.T) {
		s := newSong("Ghost", "1.00", 60)
		s.ID = 999
		assert.ErrorIs(t, m.UpdateSong(ctx, s), ErrSongNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, m.DeleteSong(ctx, 1))
		_, err := m.GetSong(ctx, 1)
		assert.ErrorIs(t, err, ErrSongNotFound)
		assert.ErrorIs(t, m.DeleteSong(ctx, 1), ErrSongNotFound)
	})
}

func TestMemory_ListSongs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ids := []int64{}
	for _, title := range []string{"a", "b", "c"} {
		s := newSong(title, "1.00", 60)
		require.NoError(t, m.CreateSong(ctx, s))
		ids = append(ids, s.ID)
		time.Sleep(2 * time.Millisecond)
	}

	songs, total, err := m.ListSongs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, songs, 3)
	// Newest first.
	assert.Equal(t, ids[2], songs[0].ID)
	assert.Equal(t, ids[0], songs[2].ID)

	songs, total, err = m.ListSongs(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, songs, 1)
	assert.Equal(t, ids[0], songs[0].ID)

	songs, _, err = m.ListSongs(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, songs)

	// A page below 1 is treated as the first page.
	songs, total, err = m.ListSongs(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, songs, 3)
}

func TestMemory_GetSongsByIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s1 := newSong("a", "3.00", 60)
	s2 := newSong("b", "4.00", 60)
	require.NoError(t, m.CreateSong(ctx, s1))
	require.NoError(t, m.CreateSong(ctx, s2))

	songs, err := m.GetSongsByIDs(ctx, []int64{s2.ID, s1.ID, s2.ID, 999})
	require.NoError(t, err)
	// Distinct matches only; unresolved ids are absent, not an error.
	require.Len(t, songs, 2)
	assert.Equal(t, s1.ID, songs[0].ID)
	assert.Equal(t, s2.ID, songs[1].ID)
}

func TestMemory_PlaylistCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s1 := newSong("a", "3.99", 180)
	s2 := newSong("b", "4.99", 240)
	require.NoError(t, m.CreateSong(ctx, s1))
	require.NoError(t, m.CreateSong(ctx, s2))

	t.Run("create with membership", func(t *testing.T) {
		p := &models.Playlist{Name: "mix"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s2.ID, s1.ID}))
		assert.Equal(t, int64(1), p.ID)

		got, err := m.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "mix", got.Name)
		// Membership order is preserved.
		assert.Equal(t, []int64{s2.ID, s1.ID}, got.SongIDs())
	})

	t.Run("create with unknown song id", func(t *testing.T) {
		p := &models.Playlist{Name: "broken"}
		err := m.CreatePlaylist(ctx, p, []int64{s1.ID, 999})
		var missing *MissingSongsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []int64{999}, missing.IDs)
	})

	t.Run("duplicate members are kept", func(t *testing.T) {
		p := &models.Playlist{Name: "loop"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID, s1.ID}))

		got, err := m.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{s1.ID, s1.ID}, got.SongIDs())
	})

	t.Run("update replaces membership and touches updated_at", func(t *testing.T) {
		p := &models.Playlist{Name: "replace"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID}))

		time.Sleep(5 * time.Millisecond)
		require.NoError(t, m.UpdatePlaylist(ctx, p.ID, nil, []int64{s2.ID, s1.ID}))

		got, err := m.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{s2.ID, s1.ID}, got.SongIDs())
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	})

	t.Run("update of unknown playlist", func(t *testing.T) {
		assert.ErrorIs(t, m.UpdatePlaylist(ctx, 999, nil, []int64{s1.ID}), ErrPlaylistNotFound)
	})

	t.Run("rename keeps the membership", func(t *testing.T) {
		p := &models.Playlist{Name: "old"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID}))

		name := "new"
		require.NoError(t, m.UpdatePlaylist(ctx, p.ID, &name, nil))

		got, err := m.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)
		assert.Equal(t, []int64{s1.ID}, got.SongIDs())
	})

	t.Run("rejected membership leaves the whole playlist untouched", func(t *testing.T) {
		p := &models.Playlist{Name: "before"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID}))

		name := "after"
		err := m.UpdatePlaylist(ctx, p.ID, &name, []int64{s2.ID, 999})
		var missing *MissingSongsError
		require.ErrorAs(t, err, &missing)

		got, err := m.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "before", got.Name)
		assert.Equal(t, []int64{s1.ID}, got.SongIDs())
	})

	t.Run("delete", func(t *testing.T) {
		p := &models.Playlist{Name: "gone"}
		require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID}))
		require.NoError(t, m.DeletePlaylist(ctx, p.ID))
		_, err := m.GetPlaylist(ctx, p.ID)
		assert.ErrorIs(t, err, ErrPlaylistNotFound)
		assert.ErrorIs(t, m.DeletePlaylist(ctx, p.ID), ErrPlaylistNotFound)
	})
}

func TestMemory_DeleteSongDropsPlaylistReferences(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s1 := newSong("a", "3.99", 180)
	s2 := newSong("b", "4.99", 240)
	s3 := newSong("c", "5.99", 200)
	require.NoError(t, m.CreateSong(ctx, s1))
	require.NoError(t, m.CreateSong(ctx, s2))
	require.NoError(t, m.CreateSong(ctx, s3))

	p := &models.Playlist{Name: "mix"}
	require.NoError(t, m.CreatePlaylist(ctx, p, []int64{s1.ID, s2.ID, s3.ID}))

	require.NoError(t, m.DeleteSong(ctx, s2.ID))

	got, err := m.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	// The reference is dropped, the remaining order survives.
	assert.Equal(t, []int64{s1.ID, s3.ID}, got.SongIDs())
}
