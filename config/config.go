package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"studenteats/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	RequestTimeout time.Duration
	ChatTimeout    time.Duration

	AWSRegion          string
	S3Bucket           string
	SESFrom            string
	ReportEmail        string
	SNSPlatformARN     string
	RekognitionEnabled bool

	GoogleAPIKey string
	ChatModel    string
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        databaseURL(),
		JWTSecret:          os.Getenv("SUPABASE_JWT_SECRET"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 15*time.Second),
		ChatTimeout:        getDuration("CHAT_TIMEOUT", 60*time.Second),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		SESFrom:            os.Getenv("SES_EMAIL"),
		ReportEmail:        os.Getenv("REPORT_EMAIL"),
		SNSPlatformARN:     os.Getenv("SNS_PLATFORM_ARN"),
		RekognitionEnabled: getBool("REKOGNITION_ENABLED", false),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		ChatModel:          getEnv("CHAT_MODEL", "gemini-2.5-flash"),
	}
}

// databaseURL prefers a full connection string (Supabase hands one out) and
// otherwise assembles one from DB_* parts.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "require"),
	)
}

// GormConfig is shared by the server, the scrape job and tests.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
		// food_items rows are swept weekly while meal entries keep pointing at them
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func OpenDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.FoodItem{},
		&models.Profile{},
		&models.MealEntry{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusChange{},
		&models.ChatMessage{},
		&models.UserDevice{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
