package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DateOrderPolicy selects how a table row with two dates is interpreted.
// Positional takes them in document order (first = infraction, second = due).
// Chronological assigns the later of the two as the due date.
type DateOrderPolicy string

const (
	DateOrderPositional    DateOrderPolicy = "positional"
	DateOrderChronological DateOrderPolicy = "chronological"
)

type Config struct {
	ServerPort        string
	PortalURL         string
	DownloadDir       string
	ExportDir         string
	RedisAddr         string
	TessdataPrefix    string
	DateOrderPolicy   DateOrderPolicy
	ConsultationDelay time.Duration
	VehicleTimeout    time.Duration
	Headless          bool
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	policy := DateOrderPositional
	if os.Getenv("DATE_ORDER_POLICY") == string(DateOrderChronological) {
		policy = DateOrderChronological
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		PortalURL:         getEnv("PORTAL_URL", "https://sistemas.detran.ce.gov.br/central"),
		DownloadDir:       getEnv("DOWNLOAD_DIR", "boletos"),
		ExportDir:         getEnv("EXPORT_DIR", "resultados"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		TessdataPrefix:    getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata/"),
		DateOrderPolicy:   policy,
		ConsultationDelay: time.Duration(getEnvInt("CONSULTATION_DELAY_SECONDS", 2)) * time.Second,
		VehicleTimeout:    time.Duration(getEnvInt("VEHICLE_TIMEOUT_SECONDS", 180)) * time.Second,
		Headless:          getEnv("HEADLESS", "true") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
