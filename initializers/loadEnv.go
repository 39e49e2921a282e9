package initializers

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicURL      string   `mapstructure:"public_url"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	ResetURL      string        `mapstructure:"reset_url"`
}

type PricingConfig struct {
	Currency              string  `mapstructure:"currency"`
	DeliveryFee           int64   `mapstructure:"delivery_fee"`
	FreeDeliveryThreshold int64   `mapstructure:"free_delivery_threshold"`
	TaxRate               float64 `mapstructure:"tax_rate"`
	MaxItemQuantity       int     `mapstructure:"max_item_quantity"`
}

type LoyaltyConfig struct {
	FrancPerPoint int64 `mapstructure:"franc_per_point"`
	PointValue    int64 `mapstructure:"point_value"`
	WelcomeBonus  int64 `mapstructure:"welcome_bonus"`
}

type AddressConfig struct {
	MaxPerUser int `mapstructure:"max_per_user"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	BaseURL       string `mapstructure:"base_url"`
}

type PayPalConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	BaseURL      string `mapstructure:"base_url"`
	ReturnURL    string `mapstructure:"return_url"`
	CancelURL    string `mapstructure:"cancel_url"`
}

type CinetPayConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SiteID    string `mapstructure:"site_id"`
	BaseURL   string `mapstructure:"base_url"`
	NotifyURL string `mapstructure:"notify_url"`
	ReturnURL string `mapstructure:"return_url"`
}

type MailConfig struct {
	From        string `mapstructure:"from"`
	Password    string `mapstructure:"password"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPAddress string `mapstructure:"smtp_address"`
	Templates   string `mapstructure:"templates"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
}

type JobsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	AnalyticsHour  int  `mapstructure:"analytics_hour"`
	PromotionsHour int  `mapstructure:"promotions_hour"`
}

type AppConfig struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Auth      AuthConfig     `mapstructure:"auth"`
	Pricing   PricingConfig  `mapstructure:"pricing"`
	Loyalty   LoyaltyConfig  `mapstructure:"loyalty"`
	Addresses AddressConfig  `mapstructure:"addresses"`
	Stripe    StripeConfig   `mapstructure:"stripe"`
	PayPal    PayPalConfig   `mapstructure:"paypal"`
	CinetPay  CinetPayConfig `mapstructure:"cinetpay"`
	Mail      MailConfig     `mapstructure:"mail"`
	S3        S3Config       `mapstructure:"s3"`
	Jobs      JobsConfig     `mapstructure:"jobs"`
}

var Config = DefaultConfig()

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{Driver: "mysql"},
		Auth:     AuthConfig{TokenTTL: 30 * 24 * time.Hour, ResetTokenTTL: time.Hour},
		Pricing: PricingConfig{
			Currency:              "XOF",
			DeliveryFee:           1000,
			FreeDeliveryThreshold: 15000,
			MaxItemQuantity:       20,
		},
		Loyalty:   LoyaltyConfig{FrancPerPoint: 100, PointValue: 5},
		Addresses: AddressConfig{MaxPerUser: 5},
		Stripe:    StripeConfig{BaseURL: "https://api.stripe.com"},
		PayPal:    PayPalConfig{BaseURL: "https://api-m.sandbox.paypal.com"},
		CinetPay:  CinetPayConfig{BaseURL: "https://api-checkout.cinetpay.com"},
		Mail:      MailConfig{Templates: "templates"},
		Jobs:      JobsConfig{Enabled: true, AnalyticsHour: 1, PromotionsHour: 0},
	}
}

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment.")
	}
}

// LoadConfig reads config.yaml (if present) and the environment on top of the
// defaults. PRICING_DELIVERY_FEE overrides pricing.delivery_fee and so on.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	Config = cfg
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.public_url", d.Server.PublicURL)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.reset_token_ttl", d.Auth.ResetTokenTTL)
	v.SetDefault("auth.reset_url", d.Auth.ResetURL)
	v.SetDefault("pricing.currency", d.Pricing.Currency)
	v.SetDefault("pricing.delivery_fee", d.Pricing.DeliveryFee)
	v.SetDefault("pricing.free_delivery_threshold", d.Pricing.FreeDeliveryThreshold)
	v.SetDefault("pricing.tax_rate", d.Pricing.TaxRate)
	v.SetDefault("pricing.max_item_quantity", d.Pricing.MaxItemQuantity)
	v.SetDefault("loyalty.franc_per_point", d.Loyalty.FrancPerPoint)
	v.SetDefault("loyalty.point_value", d.Loyalty.PointValue)
	v.SetDefault("loyalty.welcome_bonus", d.Loyalty.WelcomeBonus)
	v.SetDefault("addresses.max_per_user", d.Addresses.MaxPerUser)
	v.SetDefault("stripe.secret_key", d.Stripe.SecretKey)
	v.SetDefault("stripe.webhook_secret", d.Stripe.WebhookSecret)
	v.SetDefault("stripe.base_url", d.Stripe.BaseURL)
	v.SetDefault("paypal.client_id", d.PayPal.ClientID)
	v.SetDefault("paypal.client_secret", d.PayPal.ClientSecret)
	v.SetDefault("paypal.base_url", d.PayPal.BaseURL)
	v.SetDefault("paypal.return_url", d.PayPal.ReturnURL)
	v.SetDefault("paypal.cancel_url", d.PayPal.CancelURL)
	v.SetDefault("cinetpay.api_key", d.CinetPay.APIKey)
	v.SetDefault("cinetpay.site_id", d.CinetPay.SiteID)
	v.SetDefault("cinetpay.base_url", d.CinetPay.BaseURL)
	v.SetDefault("cinetpay.notify_url", d.CinetPay.NotifyURL)
	v.SetDefault("cinetpay.return_url", d.CinetPay.ReturnURL)
	v.SetDefault("mail.from", d.Mail.From)
	v.SetDefault("mail.password", d.Mail.Password)
	v.SetDefault("mail.smtp_host", d.Mail.SMTPHost)
	v.SetDefault("mail.smtp_address", d.Mail.SMTPAddress)
	v.SetDefault("mail.templates", d.Mail.Templates)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("jobs.enabled", d.Jobs.Enabled)
	v.SetDefault("jobs.analytics_hour", d.Jobs.AnalyticsHour)
	v.SetDefault("jobs.promotions_hour", d.Jobs.PromotionsHour)
}
