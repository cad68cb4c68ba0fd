package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ShaneDT1126/opswerk-assessment/models"
)

const songColumns = `id, title, length, date_released, price::text, created_at, updated_at`

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.Connect(ctx, connString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "database ping failed")
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSong reads the songColumns projection. Price travels as text to avoid
// lossy numeric conversions.
func scanSong(row rowScanner, s *models.Song) error {
	var price string
	if err := row.Scan(&s.ID, &s.Title, &s.Length, &s.DateReleased, &price, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return errors.Wrapf(err, "invalid price %q for song %d", price, s.ID)
	}
	s.Price = d
	return nil
}

func (p *Postgres) CreateSong(ctx context.Context, s *models.Song) error {
	query := `INSERT INTO t_songs (title, length, date_released, price)
	          VALUES ($1, $2, $3, $4::numeric)
	          RETURNING id, created_at, updated_at`
	err := p.pool.QueryRow(ctx, query, s.Title, s.Length, s.DateReleased, s.Price.String()).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert song")
	}
	return nil
}

func (p *Postgres) ListSongs(ctx context.Context, page, limit int) ([]models.Song, int, error) {
	if page < 1 {
		page = 1
	}

	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM t_songs`).Scan(&count); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count songs")
	}

	query := `SELECT ` + songColumns + ` FROM t_songs
	          ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := p.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list songs")
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := scanSong(rows, &s); err != nil {
			return nil, 0, err
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to read songs")
	}
	return songs, count, nil
}

func (p *Postgres) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	var s models.Song
	query := `SELECT ` + songColumns + ` FROM t_songs WHERE id = $1`
	if err := scanSong(p.pool.QueryRow(ctx, query, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSongNotFound
		}
		return nil, errors.Wrap(err, "failed to get song")
	}
	return &s, nil
}

func (p *Postgres) GetSongsByIDs(ctx context.Context, ids []int64) ([]models.Song, error) {
	if len(ids) == 0 {
		return []models.Song{}, nil
	}
	query := `SELECT ` + songColumns + ` FROM t_songs WHERE id = ANY($1) ORDER BY id`
	rows, err := p.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get songs by ids")
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := scanSong(rows, &s); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read songs")
	}
	return songs, nil
}

func (p *Postgres) UpdateSong(ctx context.Context, s *models.Song) error {
	query := `UPDATE t_songs
	          SET title = $1, length = $2, date_released = $3, price = $4::numeric, updated_at = now()
	          WHERE id = $5
	          RETURNING created_at, updated_at`
	err := p.pool.QueryRow(ctx, query, s.Title, s.Length, s.DateReleased, s.Price.String(), s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSongNotFound
		}
		return errors.Wrap(err, "failed to update song")
	}
	return nil
}

func (p *Postgres) DeleteSong(ctx context.Context, id int64) error {
	// Join rows referencing the song are removed by ON DELETE CASCADE.
	tag, err := p.pool.Exec(ctx, `DELETE FROM t_songs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete song")
	}
	if tag.RowsAffected() == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (p *Postgres) CreatePlaylist(ctx context.Context, pl *models.Playlist, songIDs []int64) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO t_playlists (name) VALUES ($1) RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query, pl.Name).Scan(&pl.ID, &pl.CreatedAt, &pl.UpdatedAt); err != nil {
		return errors.Wrap(err, "failed to insert playlist")
	}
	if err := insertMembership(ctx, tx, pl.ID, songIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) ListPlaylists(ctx context.Context, page, limit int) ([]models.Playlist, int, error) {
	if page < 1 {
		page = 1
	}

	var count int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM t_playlists`).Scan(&count); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count playlists")
	}

	query := `SELECT id, name, created_at, updated_at FROM t_playlists
	          ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := p.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list playlists")
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var pl models.Playlist
		if err := rows.Scan(&pl.ID, &pl.Name, &pl.CreatedAt, &pl.UpdatedAt); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan playlist")
		}
		playlists = append(playlists, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "failed to read playlists")
	}

	for i := range playlists {
		songs, err := p.playlistSongs(ctx, playlists[i].ID)
		if err != nil {
			return nil, 0, err
		}
		playlists[i].Songs = songs
	}
	return playlists, count, nil
}

func (p *Postgres) GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error) {
	var pl models.Playlist
	query := `SELECT id, name, created_at, updated_at FROM t_playlists WHERE id = $1`
	err := p.pool.QueryRow(ctx, query, id).Scan(&pl.ID, &pl.Name, &pl.CreatedAt, &pl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, errors.Wrap(err, "failed to get playlist")
	}

	songs, err := p.playlistSongs(ctx, id)
	if err != nil {
		return nil, err
	}
	pl.Songs = songs
	return &pl, nil
}

// playlistSongs loads the member songs in association order.
func (p *Postgres) playlistSongs(ctx context.Context, playlistID int64) ([]models.Song, error) {
	query := `SELECT s.id, s.title, s.length, s.date_released, s.price::text, s.created_at, s.updated_at
	          FROM t_playlist_songs ps
	          JOIN t_songs s ON ps.song_id = s.id
	          WHERE ps.playlist_id = $1
	          ORDER BY ps.position`
	rows, err := p.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlist songs")
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := scanSong(rows, &s); err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read playlist songs")
	}
	return songs, nil
}

func (p *Postgres) UpdatePlaylist(ctx context.Context, id int64, name *string, songIDs []int64) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM t_playlists WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "failed to check playlist")
	}
	if !exists {
		return ErrPlaylistNotFound
	}

	// Name and membership commit together; a rejected membership rolls the
	// whole write back.
	if songIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM t_playlist_songs WHERE playlist_id = $1`, id); err != nil {
			return errors.Wrap(err, "failed to clear playlist songs")
		}
		if err := insertMembership(ctx, tx, id, songIDs); err != nil {
			return err
		}
	}
	switch {
	case name != nil:
		if _, err := tx.Exec(ctx, `UPDATE t_playlists SET name = $1, updated_at = now() WHERE id = $2`, *name, id); err != nil {
			return errors.Wrap(err, "failed to update playlist")
		}
	case songIDs != nil:
		if _, err := tx.Exec(ctx, `UPDATE t_playlists SET updated_at = now() WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "failed to touch playlist")
		}
	}
	return tx.Commit(ctx)
}

func (p *Postgres) DeletePlaylist(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM t_playlists WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete playlist")
	}
	if tag.RowsAffected() == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// insertMembership writes the join rows with sequential positions after
// checking that every referenced song exists.
func insertMembership(ctx context.Context, tx pgx.Tx, playlistID int64, songIDs []int64) error {
	if len(songIDs) == 0 {
		return nil
	}

	rows, err := tx.Query(ctx, `SELECT id FROM t_songs WHERE id = ANY($1)`, songIDs)
	if err != nil {
		return errors.Wrap(err, "failed to check song ids")
	}
	found := map[int64]bool{}
	for rows.Next() {
		var songID int64
		if err := rows.Scan(&songID); err != nil {
			rows.Close()
			return errors.Wrap(err, "failed to scan song id")
		}
		found[songID] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to read song ids")
	}

	missing := []int64{}
	seen := map[int64]bool{}
	for _, songID := range songIDs {
		if !found[songID] && !seen[songID] {
			missing = append(missing, songID)
			seen[songID] = true
		}
	}
	if len(missing) > 0 {
		return &MissingSongsError{IDs: missing}
	}

	for i, songID := range songIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO t_playlist_songs (playlist_id, song_id, position) VALUES ($1, $2, $3)`,
			playlistID, songID, i)
		if err != nil {
			return errors.Wrap(err, "failed to insert playlist song")
		}
	}
	return nil
}
