package handlers

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ShaneDT1126/opswerk-assessment/models"
	"github.com/ShaneDT1126/opswerk-assessment/payments"
	"github.com/ShaneDT1126/opswerk-assessment/store"
)

type songRequest struct {
	Title        string          `json:"title" validate:"required,max=255"`
	Length       int             `json:"length" validate:"required,gt=0"`
	DateReleased time.Time       `json:"date_released" validate:"required"`
	Price        decimal.Decimal `json:"price"`
}

// checkPrice enforces the invariants the validator tags cannot express:
// a positive amount with at most two fractional digits.
func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return errors.New("price must be a positive amount")
	}
	if price.Exponent() < -2 {
		return errors.New("price must have at most 2 decimal places")
	}
	return nil
}

// GetSongs lists songs, newest first, a page at a time.
func GetSongs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)

	songs, total, err := Store.ListSongs(c.Context(), page, defaultPageSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list songs")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list songs"})
	}

	return c.JSON(fiber.Map{
		"results":   songs,
		"total":     total,
		"page":      page,
		"last_page": lastPage(total, defaultPageSize),
	})
}

// CreateSong adds a new song.
func CreateSong(c *fiber.Ctx) error {
	var req songRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := checkPrice(req.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	song := models.Song{
		Title:        req.Title,
		Length:       req.Length,
		DateReleased: req.DateReleased,
		Price:        req.Price,
	}
	if err := Store.CreateSong(c.Context(), &song); err != nil {
		log.Error().Err(err).Msg("failed to create song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create song"})
	}

	return c.Status(fiber.StatusCreated).JSON(song)
}

// GetSongByID returns a single song.
func GetSongByID(c *fiber.Ctx) error {
	id, err := parseID(c, "songID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid song ID"})
	}

	song, err := Store.GetSong(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "song not found"})
		}
		log.Error().Err(err).Int64("song_id", id).Msg("failed to get song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get song"})
	}

	return c.JSON(song)
}

// UpdateSong replaces every field of a song.
func UpdateSong(c *fiber.Ctx) error {
	id, err := parseID(c, "songID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid song ID"})
	}

	var req songRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := checkPrice(req.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	song := models.Song{
		ID:           id,
		Title:        req.Title,
		Length:       req.Length,
		DateReleased: req.DateReleased,
		Price:        req.Price,
	}
	if err := Store.UpdateSong(c.Context(), &song); err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "song not found"})
		}
		log.Error().Err(err).Int64("song_id", id).Msg("failed to update song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update song"})
	}

	return c.JSON(song)
}

// PatchSong updates only the fields present in the body.
func PatchSong(c *fiber.Ctx) error {
	id, err := parseID(c, "songID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid song ID"})
	}

	var patch struct {
		Title        *string          `json:"title"`
		Length       *int             `json:"length"`
		DateReleased *time.Time       `json:"date_released"`
		Price        *decimal.Decimal `json:"price"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	song, err := Store.GetSong(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "song not found"})
		}
		log.Error().Err(err).Int64("song_id", id).Msg("failed to get song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get song"})
	}

	if patch.Title != nil {
		song.Title = *patch.Title
	}
	if patch.Length != nil {
		song.Length = *patch.Length
	}
	if patch.DateReleased != nil {
		song.DateReleased = *patch.DateReleased
	}
	if patch.Price != nil {
		song.Price = *patch.Price
	}

	// The merged record must still satisfy the create rules.
	merged := songRequest{
		Title:        song.Title,
		Length:       song.Length,
		DateReleased: song.DateReleased,
		Price:        song.Price,
	}
	if err := validate.Struct(&merged); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := checkPrice(song.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := Store.UpdateSong(c.Context(), song); err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "song not found"})
		}
		log.Error().Err(err).Int64("song_id", id).Msg("failed to update song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update song"})
	}

	return c.JSON(song)
}

// DeleteSong removes a song. Playlists referencing it simply drop the entry.
func DeleteSong(c *fiber.Ctx) error {
	id, err := parseID(c, "songID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid song ID"})
	}

	if err := Store.DeleteSong(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrSongNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "song not found"})
		}
		log.Error().Err(err).Int64("song_id", id).Msg("failed to delete song")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete song"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PurchaseSongs charges for a set of songs through the gateway matching the
// total amount. Nothing is persisted; the response is the whole receipt.
func PurchaseSongs(c *fiber.Ctx) error {
	var req struct {
		SongIDs []int64 `json:"song_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "song_ids must be a list of song IDs"})
	}
	if len(req.SongIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "please provide a non-empty song_ids list"})
	}

	songs, err := Store.GetSongsByIDs(c.Context(), req.SongIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to load songs for purchase")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load songs"})
	}

	byID := make(map[int64]models.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}

	missing := []int64{}
	seen := map[int64]bool{}
	for _, id := range req.SongIDs {
		if _, ok := byID[id]; !ok && !seen[id] {
			missing = append(missing, id)
			seen[id] = true
		}
	}
	if len(missing) > 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("songs not found for IDs: %v", missing),
		})
	}

	// Duplicated ids are charged per occurrence.
	total := decimal.Zero
	purchased := make([]models.Song, 0, len(req.SongIDs))
	for _, id := range req.SongIDs {
		s := byID[id]
		total = total.Add(s.Price)
		purchased = append(purchased, s)
	}

	gateway := payments.SelectGateway(total)
	receipt, err := gateway.Process(total, req.SongIDs)
	if err != nil {
		log.Error().Err(err).Str("gateway", string(gateway)).Msg("payment processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "payment processing failed"})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         "Purchase completed successfully",
		"total_price":     total,
		"songs_purchased": purchased,
		"payment_info":    receipt,
	})
}
