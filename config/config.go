package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool

	// persistence backend: "sqlite" or "mongo"
	StoreBackend string
	SQLitePath   string
	MongoURI     string
	MongoDB      string

	// object storage
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3BaseURL  string

	// captcha provider
	CaptchaVerifyURL string
	CaptchaSecret    string

	// payment gateway
	PaymentBaseURL string
	PaymentSecret  string
}

// ParseFlags reads configuration from flags, with a .env file supplying
// defaults for the secrets that should not live on the command line.
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")

	flag.StringVar(&cfg.StoreBackend, "store", env("STORE_BACKEND", "sqlite"), "persistence backend: sqlite or mongo")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", env("SQLITE_PATH", "formloom.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.MongoURI, "mongo-uri", env("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flag.StringVar(&cfg.MongoDB, "mongo-db", env("MONGO_DB", "formloom"), "MongoDB database name")

	flag.StringVar(&cfg.S3Bucket, "s3-bucket", os.Getenv("S3_BUCKET"), "object storage bucket for file uploads")
	flag.StringVar(&cfg.S3Region, "s3-region", env("S3_REGION", "us-east-1"), "object storage region")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "custom S3-compatible endpoint")
	flag.StringVar(&cfg.S3BaseURL, "s3-base-url", os.Getenv("S3_BASE_URL"), "public URL prefix for uploaded files")

	flag.StringVar(&cfg.CaptchaVerifyURL, "captcha-verify-url", os.Getenv("CAPTCHA_VERIFY_URL"), "captcha verification endpoint")
	flag.StringVar(&cfg.CaptchaSecret, "captcha-secret", os.Getenv("CAPTCHA_SECRET"), "captcha provider secret")

	flag.StringVar(&cfg.PaymentBaseURL, "payment-base-url", os.Getenv("PAYMENT_BASE_URL"), "payment gateway base URL")
	flag.StringVar(&cfg.PaymentSecret, "payment-secret", os.Getenv("PAYMENT_SECRET"), "payment gateway secret key")

	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("TOKEN_SECRET"), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
		return
	}
	if cfg.StoreBackend != "sqlite" && cfg.StoreBackend != "mongo" {
		err = errors.New("-store must be sqlite or mongo")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
