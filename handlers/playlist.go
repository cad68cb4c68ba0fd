package handlers

import (
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ShaneDT1126/opswerk-assessment/models"
	"github.com/ShaneDT1126/opswerk-assessment/store"
)

type playlistRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	SongIDs []int64 `json:"song_ids"`
}

// playlistPayload is the playlist wire shape: the record plus the derived
// totals, recomputed from the current membership on every response. The
// price total always carries two decimals, "0.00" for an empty playlist.
type playlistPayload struct {
	models.Playlist
	TotalDuration int    `json:"total_duration"`
	TotalPrice    string `json:"total_price"`
}

func newPlaylistPayload(p *models.Playlist) playlistPayload {
	return playlistPayload{
		Playlist:      *p,
		TotalDuration: p.TotalDuration(),
		TotalPrice:    p.TotalPrice().StringFixed(2),
	}
}

// GetPlaylists lists playlists, newest first.
func GetPlaylists(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)

	playlists, total, err := Store.ListPlaylists(c.Context(), page, defaultPageSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list playlists")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list playlists"})
	}

	results := make([]playlistPayload, len(playlists))
	for i := range playlists {
		results[i] = newPlaylistPayload(&playlists[i])
	}

	return c.JSON(fiber.Map{
		"results":   results,
		"total":     total,
		"page":      page,
		"last_page": lastPage(total, defaultPageSize),
	})
}

// CreatePlaylist creates a playlist, optionally with an initial member list.
func CreatePlaylist(c *fiber.Ctx) error {
	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	playlist := models.Playlist{Name: req.Name}
	if err := Store.CreatePlaylist(c.Context(), &playlist, req.SongIDs); err != nil {
		var missing *store.MissingSongsError
		if errors.As(err, &missing) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": missing.Error()})
		}
		log.Error().Err(err).Msg("failed to create playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create playlist"})
	}

	full, err := Store.GetPlaylist(c.Context(), playlist.ID)
	if err != nil {
		log.Error().Err(err).Int64("playlist_id", playlist.ID).Msg("failed to load playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load playlist"})
	}

	return c.Status(fiber.StatusCreated).JSON(newPlaylistPayload(full))
}

// GetPlaylistByID returns a playlist with its songs and totals.
func GetPlaylistByID(c *fiber.Ctx) error {
	id, err := parseID(c, "playlistID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist ID"})
	}

	playlist, err := Store.GetPlaylist(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "playlist not found"})
		}
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to get playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get playlist"})
	}

	return c.JSON(newPlaylistPayload(playlist))
}

// UpdatePlaylist replaces the playlist's name and membership in one write.
// An omitted song_ids list clears the membership.
func UpdatePlaylist(c *fiber.Ctx) error {
	id, err := parseID(c, "playlistID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist ID"})
	}

	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	songIDs := req.SongIDs
	if songIDs == nil {
		songIDs = []int64{}
	}
	if err := Store.UpdatePlaylist(c.Context(), id, &req.Name, songIDs); err != nil {
		return playlistUpdateError(c, id, err)
	}

	return respondWithPlaylist(c, id, fiber.StatusOK)
}

// PatchPlaylist updates only the fields present in the body.
func PatchPlaylist(c *fiber.Ctx) error {
	id, err := parseID(c, "playlistID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist ID"})
	}

	var patch struct {
		Name    *string  `json:"name"`
		SongIDs *[]int64 `json:"song_ids"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if patch.Name != nil {
		merged := playlistRequest{Name: *patch.Name}
		if err := validate.StructPartial(&merged, "Name"); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	var songIDs []int64
	if patch.SongIDs != nil {
		songIDs = *patch.SongIDs
		if songIDs == nil {
			songIDs = []int64{}
		}
	}
	if err := Store.UpdatePlaylist(c.Context(), id, patch.Name, songIDs); err != nil {
		return playlistUpdateError(c, id, err)
	}

	return respondWithPlaylist(c, id, fiber.StatusOK)
}

// DeletePlaylist removes a playlist and its membership rows. Songs are not
// touched.
func DeletePlaylist(c *fiber.Ctx) error {
	id, err := parseID(c, "playlistID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist ID"})
	}

	if err := Store.DeletePlaylist(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "playlist not found"})
		}
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to delete playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete playlist"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ShufflePlaylist draws a fresh uniform permutation of the membership and
// persists it. Each call is independent of any previous shuffle.
func ShufflePlaylist(c *fiber.Ctx) error {
	id, err := parseID(c, "playlistID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid playlist ID"})
	}

	playlist, err := Store.GetPlaylist(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "playlist not found"})
		}
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to get playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get playlist"})
	}

	if len(playlist.Songs) < 2 {
		return c.JSON(fiber.Map{
			"message":  "Playlist has fewer than 2 songs, no shuffle needed",
			"playlist": newPlaylistPayload(playlist),
		})
	}

	ids := playlist.SongIDs()
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	if err := Store.UpdatePlaylist(c.Context(), id, nil, ids); err != nil {
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to persist shuffle")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to shuffle playlist"})
	}

	shuffled, err := Store.GetPlaylist(c.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to load playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load playlist"})
	}

	return c.JSON(fiber.Map{
		"message":  "Playlist shuffled successfully",
		"playlist": newPlaylistPayload(shuffled),
	})
}

// playlistUpdateError maps playlist-write errors onto HTTP responses.
func playlistUpdateError(c *fiber.Ctx, id int64, err error) error {
	var missing *store.MissingSongsError
	if errors.As(err, &missing) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": missing.Error()})
	}
	if errors.Is(err, store.ErrPlaylistNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "playlist not found"})
	}
	log.Error().Err(err).Int64("playlist_id", id).Msg("failed to update playlist")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update playlist"})
}

func respondWithPlaylist(c *fiber.Ctx, id int64, status int) error {
	playlist, err := Store.GetPlaylist(c.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("playlist_id", id).Msg("failed to load playlist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load playlist"})
	}
	return c.Status(status).JSON(newPlaylistPayload(playlist))
}
