package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Database  Database  `envPrefix:"DB_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Retry     Retry     `envPrefix:"RETRY_"`
	Admin     Admin     `envPrefix:"ADMIN_"`
	Webhook   Webhook   `envPrefix:"WEBHOOK_"`
	PhonePe   PhonePe   `envPrefix:"PHONEPE_"`
	Razorpay  Razorpay  `envPrefix:"RAZORPAY_"`
	Braintree Braintree `envPrefix:"BRAINTREE_"`
	IThink    IThink    `envPrefix:"ITHINK_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // mysql | sqlite
	URL    string `env:"URL" envDefault:"orders.db"`
}

// Redis is optional. An empty Addr falls back to in-process order locks.
type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

type Retry struct {
	MaxAttempts     uint64        `env:"MAX_ATTEMPTS" envDefault:"3"`
	InitialInterval time.Duration `env:"INITIAL_INTERVAL" envDefault:"200ms"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Webhook struct {
	CourierSecret string `env:"COURIER_SECRET"`
}

type PhonePe struct {
	BaseApiURL    string `env:"BASE_API_URL" envDefault:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	ClientID      string `env:"CLIENT_ID"`
	ClientSecret  string `env:"CLIENT_SECRET"`
	ClientVersion string `env:"CLIENT_VERSION" envDefault:"1"`
}

type Razorpay struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID      string `env:"KEY_ID"`
	KeySecret  string `env:"KEY_SECRET"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type IThink struct {
	BaseApiURL  string        `env:"BASE_URL" envDefault:"https://pre-alpha.ithinklogistics.com/api_v3"`
	AccessToken string        `env:"ACCESS_TOKEN"`
	SecretKey   string        `env:"SECRET_KEY"`
	PickupID    string        `env:"PICKUP_ID"`
	Courier     string        `env:"COURIER" envDefault:"Delhivery"`
	AutoShip    bool          `env:"AUTO_SHIP" envDefault:"false"`
	RatePerSec  float64       `env:"RATE_PER_SEC" envDefault:"5"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
