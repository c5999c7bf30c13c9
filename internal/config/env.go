package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "pharmacie-du-soleil-dev-secret"

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	SessionSecret  string
	Timezone       string

	PharmacyPhone   string
	WhatsAppNumber  string
	PharmacyEmail   string
	PharmacyAddress string

	ReminderTick          time.Duration
	SnoozeDelay           time.Duration
	ReplyDelayMin         time.Duration
	ReplyDelayMax         time.Duration
	UploadValidatingAfter time.Duration
	UploadApprovedAfter   time.Duration
	MaxUploadMB           int
	MaxWorkspaces         int
	SeedSampleReminders   bool

	StorageBackend string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	if err := godotenv.Load(); err != nil {
		Logger.Debug("no .env file, using process environment")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", getEnv("VITE_NODE_ENV", "development")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		SessionSecret:  getEnv("SESSION_SECRET", devSessionSecret),
		Timezone:       getEnv("TIMEZONE", "Africa/Porto-Novo"),

		PharmacyPhone:   getEnv("PHARMACY_PHONE", getEnv("VITE_PHARMACY_PHONE", "+22997775522")),
		WhatsAppNumber:  getEnv("WHATSAPP_NUMBER", getEnv("VITE_WHATSAPP_NUMBER", "22997775522")),
		PharmacyEmail:   getEnv("PHARMACY_EMAIL", getEnv("VITE_PHARMACY_EMAIL", "contact@pharmaciedusoleil.bj")),
		PharmacyAddress: getEnv("PHARMACY_ADDRESS", getEnv("VITE_PHARMACY_ADDRESS", "Quartier Akpakpa, Cotonou, Bénin")),

		ReminderTick:          getEnvDuration("REMINDER_TICK", time.Minute),
		SnoozeDelay:           getEnvDuration("SNOOZE_DELAY", 15*time.Minute),
		ReplyDelayMin:         getEnvDuration("REPLY_DELAY_MIN", time.Second),
		ReplyDelayMax:         getEnvDuration("REPLY_DELAY_MAX", 2*time.Second),
		UploadValidatingAfter: getEnvDuration("UPLOAD_VALIDATING_AFTER", time.Second),
		UploadApprovedAfter:   getEnvDuration("UPLOAD_APPROVED_AFTER", 3*time.Second),
		MaxUploadMB:           getEnvInt("MAX_UPLOAD_MB", 10),
		MaxWorkspaces:         getEnvInt("MAX_WORKSPACES", 1024),
		SeedSampleReminders:   getEnvBool("SEED_SAMPLE_REMINDERS", true),

		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "eu-west-3"),
		BucketName:     getEnv("BUCKET_NAME", "pharmacie-ordonnances"),
	}

	if cfg.ReplyDelayMax < cfg.ReplyDelayMin {
		Logger.Warnf("REPLY_DELAY_MAX %s below REPLY_DELAY_MIN %s, using the minimum", cfg.ReplyDelayMax, cfg.ReplyDelayMin)
		cfg.ReplyDelayMax = cfg.ReplyDelayMin
	}
	if cfg.IsProduction() && cfg.SessionSecret == devSessionSecret {
		Logger.Warn("SESSION_SECRET not set in production, visitor cookies use the development secret")
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Location resolves the pharmacy time zone, UTC when unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		Logger.Warnf("unknown TIMEZONE %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		Logger.Warnf("%s=%q not a positive int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		Logger.Warnf("%s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		Logger.Warnf("%s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
