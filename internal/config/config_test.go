package config

import (
	"strings"
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		App: AppConfig{Environment: "development"},
		Server: ServerConfig{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{URL: "postgres://localhost/app"},
		Redis:    RedisConfig{URL: "redis://localhost:6379"},
		JWT:      JWTConfig{PrivateKeyPath: "keys/private.pem"},
		Stripe:   StripeConfig{SecretKey: "sk_test_xxx"},
		Products: ProductCatalog{{
			Key:         "resumeReview",
			PriceID:     "price_123",
			AmountCents: 4900,
		}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "missing stripe key",
			mutate:  func(c *Config) { c.Stripe.SecretKey = "" },
			wantErr: "STRIPE_SECRET_KEY",
		},
		{
			name: "webhook secret required in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: "STRIPE_WEBHOOK_SECRET",
		},
		{
			name: "product without price id",
			mutate: func(c *Config) {
				c.Products[0].PriceID = ""
			},
			wantErr: "price_id",
		},
		{
			name: "product with zero amount",
			mutate: func(c *Config) {
				c.Products[0].AmountCents = 0
			},
			wantErr: "amount_cents",
		},
		{
			name: "duplicate product key",
			mutate: func(c *Config) {
				c.Products = append(c.Products, c.Products[0])
			},
			wantErr: "duplicate key",
		},
		{
			name: "cors wildcard with credentials",
			mutate: func(c *Config) {
				c.CORS.AllowCredentials = true
				c.CORS.AllowedOrigins = []string{"*"}
			},
			wantErr: "wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want containing %q",
					err, tt.wantErr)
			}
		})
	}
}

func TestProductCookie(t *testing.T) {
	explicit := Product{Key: "resumeReview", CookieName: "rrAccess"}
	if got := explicit.Cookie(); got != "rrAccess" {
		t.Errorf("Cookie() = %q, want rrAccess", got)
	}

	derived := Product{Key: "resumeReview"}
	if got := derived.Cookie(); got != "resumeReviewPremium" {
		t.Errorf("Cookie() = %q, want resumeReviewPremium", got)
	}
}

func TestProductCatalogLookups(t *testing.T) {
	catalog := ProductCatalog{
		{Key: "resumeReview", PriceID: "price_1"},
		{Key: "interviewPrep", PriceID: "price_2"},
	}

	if p, ok := catalog.ByKey("interviewPrep"); !ok || p.PriceID != "price_2" {
		t.Errorf("ByKey(interviewPrep) = %+v, %v", p, ok)
	}
	if _, ok := catalog.ByKey("missing"); ok {
		t.Error("ByKey(missing) found a product")
	}

	if p, ok := catalog.ByPriceID("price_1"); !ok || p.Key != "resumeReview" {
		t.Errorf("ByPriceID(price_1) = %+v, %v", p, ok)
	}
	if _, ok := catalog.ByPriceID("price_x"); ok {
		t.Error("ByPriceID(price_x) found a product")
	}
}

func TestEnvKeyReplacer(t *testing.T) {
	if got := envKeyReplacer("STRIPE_SECRET_KEY"); got != "stripe.secret_key" {
		t.Errorf("envKeyReplacer(STRIPE_SECRET_KEY) = %q", got)
	}

	// Unmapped variables must not leak into the config tree.
	if got := envKeyReplacer("PATH"); got != "" {
		t.Errorf("envKeyReplacer(PATH) = %q, want empty", got)
	}
}
