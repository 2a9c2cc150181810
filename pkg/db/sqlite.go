package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/carverauto/visionconnect/pkg/logger"
	"github.com/carverauto/visionconnect/pkg/models"
)

type cameraDeviceRecord struct {
	bun.BaseModel `bun:"table:camera_devices,alias:cd"`

	DeviceID    string     `bun:"device_id,pk"`
	OwnerID     string     `bun:"owner_id,notnull"`
	DeviceName  string     `bun:"device_name,notnull"`
	DeviceToken string     `bun:"device_token,notnull,unique"`
	DeviceUID   *string    `bun:"device_uid"`
	Status      string     `bun:"status,notnull"`
	CameraModel string     `bun:"camera_model,notnull"`
	WifiSSID    string     `bun:"wifi_ssid,notnull"`
	LocalIP     *string    `bun:"local_ip"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	ActivatedAt *time.Time `bun:"activated_at,nullzero"`
}

// retiredDeviceToken remembers tokens of deleted devices; a token is issued once.
type retiredDeviceToken struct {
	bun.BaseModel `bun:"table:retired_device_tokens,alias:rt"`

	DeviceToken string    `bun:"device_token,pk"`
	DeviceID    string    `bun:"device_id,notnull"`
	RetiredAt   time.Time `bun:"retired_at,notnull"`
}

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// SQLiteStore is the single-node store used for edge installs and local development.
type SQLiteStore struct {
	db     *bun.DB
	logger logger.Logger
}

var _ Service = (*SQLiteStore)(nil)

// NewSQLiteStore opens path, or an in-memory database for ":memory:", and creates the schema.
func NewSQLiteStore(ctx context.Context, path string, log logger.Logger) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	sqlDB.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:     bun.NewDB(sqlDB, sqlitedialect.New()),
		logger: log,
	}

	if err := store.createSchema(ctx); err != nil {
		_ = store.db.Close()
		return nil, err
	}

	if log != nil {
		log.Info().Str("path", path).Msg("opened sqlite store")
	}

	return store, nil
}

func sqliteDSN(path string) string {
	switch {
	case path == ":memory:":
		return "file::memory:?_busy_timeout=5000"
	case strings.HasPrefix(path, "file:"):
		return path
	default:
		return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	for _, model := range []interface{}{
		(*cameraDeviceRecord)(nil),
		(*retiredDeviceToken)(nil),
		(*userRecord)(nil),
	} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToInit, err)
		}
	}

	_, err := s.db.NewCreateIndex().
		Model((*cameraDeviceRecord)(nil)).
		Index("idx_camera_devices_owner").
		IfNotExists().
		Column("owner_id", "created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDevice(ctx context.Context, rec *models.DeviceRecord) error {
	if rec == nil {
		return models.ErrDeviceRecordNil
	}

	row := newCameraDeviceRecord(rec)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		retired, err := tx.NewSelect().
			Model((*retiredDeviceToken)(nil)).
			Where("device_token = ?", row.DeviceToken).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("%w: retired device token: %w", ErrFailedToQuery, err)
		}

		if retired {
			return models.ErrDeviceTokenConflict
		}

		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			if isSQLiteUnique(err) {
				return models.ErrDeviceTokenConflict
			}

			return fmt.Errorf("%w: camera device: %w", ErrFailedToInsert, err)
		}

		return nil
	})
}

func (s *SQLiteStore) ActivateDevice(
	ctx context.Context, token string, act *models.DeviceActivation) (*models.DeviceRecord, error) {
	res, err := s.db.NewUpdate().
		Model((*cameraDeviceRecord)(nil)).
		Set("device_uid = ?", act.DeviceUID).
		Set("local_ip = ?", act.LocalIP).
		Set("status = ?", string(models.DeviceStatusActive)).
		Set("activated_at = ?", act.ActivatedAt.UTC()).
		Where("device_token = ?", token).
		Where("status = ?", string(models.DeviceStatusPending)).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: activate camera device: %w", ErrDatabaseError, err)
	}

	if affected, _ := res.RowsAffected(); affected != 1 {
		return nil, models.ErrDeviceNotFound
	}

	return s.GetDeviceByToken(ctx, token)
}

func (s *SQLiteStore) GetDeviceByToken(ctx context.Context, token string) (*models.DeviceRecord, error) {
	return s.selectDevice(ctx, "device_token = ?", token)
}

func (s *SQLiteStore) GetDevice(ctx context.Context, deviceID string) (*models.DeviceRecord, error) {
	return s.selectDevice(ctx, "device_id = ?", deviceID)
}

func (s *SQLiteStore) selectDevice(ctx context.Context, where string, arg interface{}) (*models.DeviceRecord, error) {
	row := new(cameraDeviceRecord)

	err := s.db.NewSelect().Model(row).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrDeviceNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: camera device: %w", ErrFailedToQuery, err)
	}

	return row.toModel(), nil
}

func (s *SQLiteStore) ListDevicesByOwner(ctx context.Context, ownerID string, limit int) ([]*models.DeviceRecord, error) {
	var rows []cameraDeviceRecord

	q := s.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: camera devices: %w", ErrFailedToQuery, err)
	}

	out := make([]*models.DeviceRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}

	return out, nil
}

// DeleteDevice removes the record and retires its token in one transaction.
func (s *SQLiteStore) DeleteDevice(ctx context.Context, ownerID, deviceID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(cameraDeviceRecord)

		err := tx.NewSelect().
			Model(row).
			Column("device_id", "device_token").
			Where("device_id = ?", deviceID).
			Where("owner_id = ?", ownerID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrDeviceNotFound
		}

		if err != nil {
			return fmt.Errorf("%w: camera device: %w", ErrFailedToQuery, err)
		}

		if _, err := tx.NewDelete().
			Model((*cameraDeviceRecord)(nil)).
			Where("device_id = ?", deviceID).
			Exec(ctx); err != nil {
			return fmt.Errorf("%w: delete camera device: %w", ErrDatabaseError, err)
		}

		if _, err := tx.NewInsert().Model(&retiredDeviceToken{
			DeviceToken: row.DeviceToken,
			DeviceID:    row.DeviceID,
			RetiredAt:   time.Now().UTC(),
		}).Exec(ctx); err != nil {
			return fmt.Errorf("%w: retired device token: %w", ErrFailedToInsert, err)
		}

		return nil
	})
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrUserNil
	}

	row := &userRecord{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isSQLiteUnique(err) {
			return ErrUserExists
		}

		return fmt.Errorf("%w: user: %w", ErrFailedToInsert, err)
	}

	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.selectUser(ctx, "email = ?", email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.selectUser(ctx, "id = ?", id)
}

func (s *SQLiteStore) selectUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	row := new(userRecord)

	err := s.db.NewSelect().Model(row).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: user: %w", ErrFailedToQuery, err)
	}

	return &models.User{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func newCameraDeviceRecord(rec *models.DeviceRecord) *cameraDeviceRecord {
	status := rec.Status
	if status == "" {
		status = models.DeviceStatusPending
	}

	return &cameraDeviceRecord{
		DeviceID:    rec.DeviceID,
		OwnerID:     rec.OwnerID,
		DeviceName:  rec.DeviceName,
		DeviceToken: rec.DeviceToken,
		DeviceUID:   cloneStringPtr(rec.DeviceUID),
		Status:      string(status),
		CameraModel: rec.CameraModel,
		WifiSSID:    rec.WifiSSID,
		LocalIP:     cloneStringPtr(rec.LocalIP),
		CreatedAt:   rec.CreatedAt.UTC(),
		ActivatedAt: utcPtr(rec.ActivatedAt),
	}
}

func (r *cameraDeviceRecord) toModel() *models.DeviceRecord {
	return &models.DeviceRecord{
		DeviceID:    r.DeviceID,
		OwnerID:     r.OwnerID,
		DeviceName:  r.DeviceName,
		DeviceToken: r.DeviceToken,
		DeviceUID:   r.DeviceUID,
		Status:      models.DeviceStatus(r.Status),
		CameraModel: r.CameraModel,
		WifiSSID:    r.WifiSSID,
		LocalIP:     r.LocalIP,
		CreatedAt:   r.CreatedAt.UTC(),
		ActivatedAt: utcPtr(r.ActivatedAt),
	}
}

func isSQLiteUnique(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
