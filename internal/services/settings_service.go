package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"scadenze/internal/core"
	"scadenze/internal/log"
	"scadenze/internal/storage"
)

// Setting keys seeded by the schema.
const (
	SettingCurrency             = "currency"
	SettingLanguage             = "language"
	SettingTheme                = "theme"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingReminderDaysBefore   = "reminder_days_before"
	SettingBiometricLock        = "biometric_lock"
)

type SettingsService struct {
	base
	repo  *storage.SQLiteRepository
	newID func() string
}

func NewSettingsService(repo *storage.SQLiteRepository, opts ...Option) *SettingsService {
	return &SettingsService{
		base:  newBase(log.ComponentSettings, opts),
		repo:  repo,
		newID: uuid.NewString,
	}
}

// CreateCategory stores a new category and returns it with its generated id.
func (s *SettingsService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Type = core.EntryType(strings.ToLower(strings.TrimSpace(string(c.Type))))
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = s.newID()
	c.CreatedAt = s.now().UTC()

	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return core.Category{}, s.fail(ctx, "Failed to create category", err, log.OpCreate, nil)
	}
	return c, nil
}

// ListCategories returns categories by name. An empty type lists every category.
func (s *SettingsService) ListCategories(ctx context.Context, t core.EntryType) ([]core.Category, error) {
	if t != "" && !t.Valid() {
		return nil, core.ErrInvalidEntryType
	}
	categories, err := s.repo.ListCategories(ctx, t)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list categories", err, log.OpList, nil)
	}
	return categories, nil
}

func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	v, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		return "", s.fail(ctx, "Failed to read setting", err, log.OpRead, nil)
	}
	return v, nil
}

// SetSetting inserts or replaces a setting value.
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.ErrEmptyName
	}
	if err := s.repo.SetSetting(ctx, key, value, s.now().UTC()); err != nil {
		return s.fail(ctx, "Failed to write setting", err, log.OpUpdate, nil)
	}
	s.logger.InfoContext(ctx, "Setting updated", "key", key)
	return nil
}

func (s *SettingsService) ListSettings(ctx context.Context) ([]core.Setting, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Failed to list settings", err, log.OpList, nil)
	}
	return settings, nil
}

// settingBool reads a 0/1 style flag, falling back to def when the key is missing or
// unparsable.
func (s *SettingsService) settingBool(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if core.IsNotFound(err) {
			return def, nil
		}
		return def, err
	}
	b, perr := strconv.ParseBool(strings.TrimSpace(v))
	if perr != nil {
		return def, nil
	}
	return b, nil
}

func (s *SettingsService) settingInt(ctx context.Context, key string, def int) (int, error) {
	v, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if core.IsNotFound(err) {
			return def, nil
		}
		return def, err
	}
	n, perr := strconv.Atoi(strings.TrimSpace(v))
	if perr != nil || n < 0 {
		return def, nil
	}
	return n, nil
}

func (s *SettingsService) settingString(ctx context.Context, key, def string) (string, error) {
	v, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if core.IsNotFound(err) {
			return def, nil
		}
		return def, err
	}
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return v, nil
}
