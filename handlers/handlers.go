// Package handlers contains the Fiber handlers for the song and playlist
// API.
package handlers

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ShaneDT1126/opswerk-assessment/middleware"
	"github.com/ShaneDT1126/opswerk-assessment/store"
)

// Store is assigned from main before the app starts serving.
var Store store.Store

var validate = validator.New()

const defaultPageSize = 10

// RegisterRoutes mounts the API routes on the given router. The purchase
// route is registered before the :songID routes so it is not swallowed by
// the id parameter.
func RegisterRoutes(api fiber.Router) {
	api.Get("/songs", middleware.ValidatePageQuery, GetSongs)
	api.Post("/songs", CreateSong)
	api.Post("/songs/purchase", PurchaseSongs)
	api.Get("/songs/:songID", GetSongByID)
	api.Put("/songs/:songID", UpdateSong)
	api.Patch("/songs/:songID", PatchSong)
	api.Delete("/songs/:songID", DeleteSong)

	api.Get("/playlists", middleware.ValidatePageQuery, GetPlaylists)
	api.Post("/playlists", CreatePlaylist)
	api.Get("/playlists/:playlistID", GetPlaylistByID)
	api.Put("/playlists/:playlistID", UpdatePlaylist)
	api.Patch("/playlists/:playlistID", PatchPlaylist)
	api.Delete("/playlists/:playlistID", DeletePlaylist)
	api.Post("/playlists/:playlistID/shuffle", ShufflePlaylist)
}

// parseID reads a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.Newf("invalid %s", name)
	}
	return id, nil
}

func lastPage(total, limit int) int {
	return (total + limit - 1) / limit
}
