package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ShaneDT1126/opswerk-assessment/store"
)

// newTestApp wires the routes against a fresh in-memory store.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	Store = store.NewMemory()
	app := fiber.New()
	api := app.Group("/api")
	RegisterRoutes(api)
	return app
}

func request(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func createSong(t *testing.T, app *fiber.App, title string, length int, price string) map[string]any {
	t.Helper()
	resp := request(t, app, fiber.MethodPost, "/api/songs", fiber.Map{
		"title":         title,
		"length":        length,
		"date_released": "2023-01-15T00:00:00Z",
		"price":         price,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeBody(t, resp)
}

func createPlaylist(t *testing.T, app *fiber.App, name string, songIDs []any) map[string]any {
	t.Helper()
	resp := request(t, app, fiber.MethodPost, "/api/playlists", fiber.Map{
		"name":     name,
		"song_ids": songIDs,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeBody(t, resp)
}
