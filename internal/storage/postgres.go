package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/models"
)

var (
	// ErrNotFound signals a missing record on operations that require one
	// to exist. Lookups return (nil, nil) for absent rows instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate signals a unique-constraint violation (username,
	// camera rtsp_url).
	ErrDuplicate = errors.New("record already exists")
)

func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresStore is the identity repository. PII fields cross its boundary
// encrypted on the way in and are decrypted exactly once on the way out,
// into PersonView read models. The persisted representation never carries
// plaintext.
type PostgresStore struct {
	pool  *pgxpool.Pool
	vault *crypto.Vault
}

func NewPostgresStore(cfg config.DatabaseConfig, vault *crypto.Vault) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool, vault: vault}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	hash, err := s.vault.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash, role, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		u.ID, u.Username, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt)
	if err != nil {
		return nil, mapPgError("create user", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, is_active, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// DeactivateUser disables a user without deleting the row. Persons owned
// by the user keep their owner_id; ownership is a weak reference and is
// never cascaded.
func (s *PostgresStore) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Persons ---

type CreatePersonParams struct {
	Name     string
	Contact  string
	Category models.Category
	Expiry   string // flexible ISO-8601, empty means never expires
}

func (s *PostgresStore) CreatePerson(ctx context.Context, params CreatePersonParams, embedding []float32, ownerID uuid.UUID) (*models.PersonView, error) {
	if len(embedding) != models.EmbeddingDim {
		return nil, fmt.Errorf("embedding must have %d dimensions, got %d", models.EmbeddingDim, len(embedding))
	}

	expiry, err := ParseExpiry(params.Expiry)
	if err != nil {
		return nil, err
	}

	nameEnc, contactEnc, err := s.encryptPII(params.Name, params.Contact)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	view := &models.PersonView{
		ID:       id,
		Name:     params.Name,
		Contact:  params.Contact,
		Category: params.Category,
		Expiry:   expiry,
		OwnerID:  &ownerID,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO persons (id, name_encrypted, contact_encrypted, category, expiry, embedding, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		id, nameEnc, contactEnc, params.Category, expiry, pgvector.NewVector(embedding), ownerID,
	).Scan(&view.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return view, nil
}

// GetPerson returns a decrypted view, or (nil, nil) when absent.
// Decryption failures propagate; they are never reported as missing data.
func (s *PostgresStore) GetPerson(ctx context.Context, id uuid.UUID) (*models.PersonView, error) {
	var (
		view       models.PersonView
		nameEnc    []byte
		contactEnc []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name_encrypted, contact_encrypted, category, expiry, owner_id, created_at FROM persons WHERE id = $1`, id,
	).Scan(&view.ID, &nameEnc, &contactEnc, &view.Category, &view.Expiry, &view.OwnerID, &view.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	if err := s.decryptInto(&view, nameEnc, contactEnc); err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *PostgresStore) ListPersons(ctx context.Context, offset, limit int) ([]models.PersonView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name_encrypted, contact_encrypted, category, expiry, owner_id, created_at
		 FROM persons ORDER BY created_at OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var views []models.PersonView
	for rows.Next() {
		var (
			view       models.PersonView
			nameEnc    []byte
			contactEnc []byte
		)
		if err := rows.Scan(&view.ID, &nameEnc, &contactEnc, &view.Category, &view.Expiry, &view.OwnerID, &view.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		if err := s.decryptInto(&view, nameEnc, contactEnc); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

// encryptPII seals the plaintext fields before they touch a row. An empty
// contact stays nil rather than becoming an encrypted empty string.
func (s *PostgresStore) encryptPII(name, contact string) (nameEnc, contactEnc []byte, err error) {
	nameEnc, err = s.vault.Encrypt(name)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt name: %w", err)
	}
	if contact != "" {
		contactEnc, err = s.vault.Encrypt(contact)
		if err != nil {
			return nil, nil, fmt.Errorf("encrypt contact: %w", err)
		}
	}
	return nameEnc, contactEnc, nil
}

func (s *PostgresStore) decryptInto(view *models.PersonView, nameEnc, contactEnc []byte) error {
	name, err := s.vault.Decrypt(nameEnc)
	if err != nil {
		return fmt.Errorf("decrypt name for person %s: %w", view.ID, err)
	}
	view.Name = name
	if len(contactEnc) > 0 {
		contact, err := s.vault.Decrypt(contactEnc)
		if err != nil {
			return fmt.Errorf("decrypt contact for person %s: %w", view.ID, err)
		}
		view.Contact = contact
	}
	return nil
}

// ListAllEmbeddings returns the full gallery in insertion order. Rows with
// an absent or malformed embedding are skipped rather than failing the
// whole query; the recognition engine never sees a partial vector.
func (s *PostgresStore) ListAllEmbeddings(ctx context.Context) ([]models.GalleryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, embedding FROM persons WHERE embedding IS NOT NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var gallery []models.GalleryEntry
	for rows.Next() {
		var (
			id  uuid.UUID
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &vec); err != nil {
			slog.Warn("skipping person with malformed embedding", "error", err)
			continue
		}
		entry, ok := galleryEntry(id, vec)
		if !ok {
			slog.Warn("skipping person with wrong embedding dimension", "person_id", id, "dim", len(vec.Slice()))
			continue
		}
		gallery = append(gallery, entry)
	}
	return gallery, rows.Err()
}

// galleryEntry validates a stored embedding row. Vectors that are not
// exactly 512-dimensional are rejected so the engine never sees a partial
// vector.
func galleryEntry(id uuid.UUID, vec pgvector.Vector) (models.GalleryEntry, bool) {
	emb := vec.Slice()
	if len(emb) != models.EmbeddingDim {
		return models.GalleryEntry{}, false
	}
	return models.GalleryEntry{PersonID: id, Embedding: emb}, true
}

// IsExpired reports whether the person has a non-null expiry strictly in
// the past. An absent expiry, or an absent person, is not expired.
func (s *PostgresStore) IsExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	var expired bool
	err := s.pool.QueryRow(ctx,
		`SELECT expiry IS NOT NULL AND expiry < NOW() FROM persons WHERE id = $1`, id,
	).Scan(&expired)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check expiry: %w", err)
	}
	return expired, nil
}

// --- Cameras ---

func (s *PostgresStore) CreateCamera(ctx context.Context, name, rtspURL, location string) (*models.Camera, error) {
	cam := &models.Camera{
		ID:       uuid.New(),
		Name:     name,
		RTSPUrl:  rtspURL,
		Location: location,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO cameras (id, name, rtsp_url, location) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		cam.ID, cam.Name, cam.RTSPUrl, cam.Location,
	).Scan(&cam.CreatedAt)
	if err != nil {
		return nil, mapPgError("create camera", err)
	}
	return cam, nil
}

func (s *PostgresStore) GetCamera(ctx context.Context, id uuid.UUID) (*models.Camera, error) {
	cam := &models.Camera{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, rtsp_url, location, created_at FROM cameras WHERE id = $1`, id,
	).Scan(&cam.ID, &cam.Name, &cam.RTSPUrl, &cam.Location, &cam.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get camera: %w", err)
	}
	return cam, nil
}

func (s *PostgresStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, rtsp_url, location, created_at FROM cameras ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []models.Camera
	for rows.Next() {
		var cam models.Camera
		if err := rows.Scan(&cam.ID, &cam.Name, &cam.RTSPUrl, &cam.Location, &cam.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, cam)
	}
	return cameras, rows.Err()
}

// --- Events ---

// CreateEvent appends an audit record. Events are never mutated or
// deleted by the service.
func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (id, person_id, camera_id, category, timestamp, confidence, image_path)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $6, $7) RETURNING timestamp`,
		ev.ID, ev.PersonID, ev.CameraID, ev.Category, nullableTime(ev.Timestamp), ev.Confidence, ev.ImagePath,
	).Scan(&ev.Timestamp)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, offset, limit int) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, person_id, camera_id, category, timestamp, confidence, image_path
		 FROM events ORDER BY timestamp DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var imagePath *string
		if err := rows.Scan(&ev.ID, &ev.PersonID, &ev.CameraID, &ev.Category, &ev.Timestamp, &ev.Confidence, &imagePath); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if imagePath != nil {
			ev.ImagePath = *imagePath
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
