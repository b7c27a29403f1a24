package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the persistence surface used by the server and the admin CLI.
// The write methods satisfy engagement.Journal.
type Storage interface {
	MessageCreated(m models.Message) error
	LikeAdded(l models.Like, likeCount int) error
	LikeRemoved(l models.Like, likeCount int) error
	ReportFiled(r models.Report, hide bool) error
	ViewCounted(messageID string) error
	MessagesHidden(ids []string) error

	LoadAll() ([]models.Message, []models.Like, []models.Report, error)

	GetMessage(id string) (*models.Message, error)
	GetReportsForMessage(messageID string) ([]models.Report, error)
	GetHiddenMessages() ([]models.Message, error)
	GetCounts() (*Counts, error)
}

// Counts is the row summary shown by the admin CLI.
type Counts struct {
	Messages int64
	Hidden   int64
	Likes    int64
	Reports  int64
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// OpenDatabase connects to the configured driver and migrates the schema.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		return nil, fmt.Errorf("driver %q has no database", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Database.Driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Message{}, &models.Like{}, &models.Report{}); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// OpenRedis returns nil when no address is configured.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// MessageCreated inserts the new message row.
func (s *Service) MessageCreated(m models.Message) error {
	if err := s.DB.Create(&m).Error; err != nil {
		log.Printf("ERROR: Failed to save message %s: %v", m.ID, err)
		return err
	}
	return nil
}

// LikeAdded inserts the like row and stores the new counter in one transaction.
func (s *Service) LikeAdded(l models.Like, likeCount int) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&l).Error; err != nil {
			log.Printf("ERROR: Failed to save like on message %s: %v", l.MessageID, err)
			return err
		}
		return setLikeCount(tx, l.MessageID, likeCount)
	})
}

// LikeRemoved deletes the like row for the (message, identity) pair.
func (s *Service) LikeRemoved(l models.Like, likeCount int) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("message_id = ? AND identity_token = ?", l.MessageID, l.IdentityToken).
			Delete(&models.Like{}).Error
		if err != nil {
			log.Printf("ERROR: Failed to delete like on message %s: %v", l.MessageID, err)
			return err
		}
		return setLikeCount(tx, l.MessageID, likeCount)
	})
}

func setLikeCount(tx *gorm.DB, messageID string, likeCount int) error {
	return tx.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("like_count", likeCount).Error
}

// ReportFiled stores the report and, when hide is set, the hidden flag.
func (s *Service) ReportFiled(r models.Report, hide bool) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			log.Printf("ERROR: Failed to save report for message %s: %v", r.MessageID, err)
			return err
		}
		if !hide {
			return nil
		}
		return tx.Model(&models.Message{}).
			Where("id = ?", r.MessageID).
			Update("hidden", true).Error
	})
}

func (s *Service) ViewCounted(messageID string) error {
	return s.DB.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// MessagesHidden sets the hidden flag on every listed message in one transaction.
func (s *Service) MessagesHidden(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Message{}).
			Where("id IN ?", ids).
			Update("hidden", true).Error
		if err != nil {
			log.Printf("ERROR: Failed to hide %d messages: %v", len(ids), err)
		}
		return err
	})
}

// LoadAll reads every row needed to rebuild the in-memory store.
func (s *Service) LoadAll() ([]models.Message, []models.Like, []models.Report, error) {
	var messages []models.Message
	if err := s.DB.Order("created_at asc, seq asc").Find(&messages).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("load messages: %w", err)
	}
	var likes []models.Like
	if err := s.DB.Order("created_at asc").Find(&likes).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("load likes: %w", err)
	}
	var reports []models.Report
	if err := s.DB.Order("created_at asc").Find(&reports).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("load reports: %w", err)
	}
	return messages, likes, reports, nil
}

// GetMessage returns nil without error when the message does not exist.
func (s *Service) GetMessage(id string) (*models.Message, error) {
	var m models.Message
	err := s.DB.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) GetReportsForMessage(messageID string) ([]models.Report, error) {
	var reports []models.Report
	if err := s.DB.Where("message_id = ?", messageID).Order("created_at asc").Find(&reports).Error; err != nil {
		log.Printf("ERROR: Failed to get reports for message %s: %v", messageID, err)
		return nil, err
	}
	return reports, nil
}

func (s *Service) GetHiddenMessages() ([]models.Message, error) {
	var messages []models.Message
	if err := s.DB.Where("hidden = ?", true).Order("created_at desc").Find(&messages).Error; err != nil {
		log.Printf("ERROR: Failed to get hidden messages: %v", err)
		return nil, err
	}
	return messages, nil
}

func (s *Service) GetCounts() (*Counts, error) {
	var c Counts
	if err := s.DB.Model(&models.Message{}).Count(&c.Messages).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Message{}).Where("hidden = ?", true).Count(&c.Hidden).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Like{}).Count(&c.Likes).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Report{}).Count(&c.Reports).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
