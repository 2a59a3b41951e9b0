package database

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"neowatch/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN отдаёт DATABASE_URL, если он задан, иначе собирает строку из отдельных полей.
func (c Config) DSN() string {
	if c.URL != "" {
		return withNeonSSL(c.URL)
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Neon принимает только TLS-подключения.
func withNeonSSL(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || !strings.Contains(u.Host, "neon.tech") {
		return dsn
	}

	q := u.Query()
	if q.Get("sslmode") != "" {
		return dsn
	}
	q.Set("sslmode", "require")
	u.RawQuery = q.Encode()
	return u.String()
}

func Connect(config Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Синхронизация пишет последовательно, много соединений не нужно
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connected successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Автомиграция моделей
	err := db.AutoMigrate(
		&models.Asteroid{},
		&models.CloseApproach{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Создаем индексы
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_close_approach_epoch ON close_approaches(epoch_date_close_approach DESC)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_asteroid_name ON asteroids(name)").Error; err != nil {
		return err
	}

	return nil
}
