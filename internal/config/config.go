// Package config loads the externally supplied engine constants from the
// environment, with defaults matching the storefront's standard setup.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/pricing"
)

// Config is the full set of engine knobs from spec section 6: shipping
// tiers, tax rates, cart limits, free-shipping threshold, lucky draw
// parameters and the external collaborators' addresses.
type Config struct {
	Pricing pricing.Config
	Limits  cart.Limits

	// Destination country used until the user switches locale.
	DefaultCountry string

	Prizes       []domain.Prize
	SpinDuration time.Duration
	MinSpins     int
	DrawCooldown time.Duration

	CatalogURL     string
	CatalogTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	SessionID     string

	PromoBrokers []string
	PromoTopic   string
	PromoGroupID string
}

// Load reads the environment and fills in defaults for anything unset.
func Load() Config {
	return Config{
		Pricing: pricing.Config{
			FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", "60.00"),
			StandardShippingCost:  getDecimal("STANDARD_SHIPPING_COST", "10.00"),
			ExpressShippingCost:   getDecimal("EXPRESS_SHIPPING_COST", "20.00"),
			SameDayShippingCost:   getDecimal("SAME_DAY_SHIPPING_COST", "30.00"),
			CountryShipping:       getDecimalMap("COUNTRY_SHIPPING", nil),
			GSTRate:               getDecimal("GST_RATE", "0.07"),
			PSTRates:              getDecimalMap("PST_RATES", nil),
		},
		Limits: cart.Limits{
			MinQuantity: getInt("CART_MIN_QUANTITY", 1),
			MaxQuantity: getInt("CART_MAX_QUANTITY", 99),
			MaxItems:    getInt("CART_MAX_ITEMS", 50),
		},
		DefaultCountry: getEnv("DEFAULT_COUNTRY", "SG"),

		Prizes:       getPrizes("LUCKY_DRAW_PRIZES"),
		SpinDuration: getDuration("SPIN_DURATION", 4000*time.Millisecond),
		MinSpins:     getInt("MIN_SPINS", 5),
		DrawCooldown: getDuration("DRAW_COOLDOWN", 24*time.Hour),

		CatalogURL:     getEnv("CATALOG_URL", "http://localhost:8080/api"),
		CatalogTimeout: getDuration("CATALOG_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionID:     getEnv("SESSION_ID", "local"),

		PromoBrokers: splitCSV(getEnv("PROMO_BROKERS", "")),
		PromoTopic:   getEnv("PROMO_TOPIC", "promo-reference"),
		PromoGroupID: getEnv("PROMO_GROUP_ID", "cart-engine"),
	}
}

// defaultPrizes mirrors the storefront's lucky draw wheel.
var defaultPrizes = []domain.Prize{
	{ID: "discount-5", Name: "5% off voucher", Weight: 50},
	{ID: "discount-10", Name: "10% off voucher", Weight: 30},
	{ID: "free-shipping", Name: "Free shipping voucher", Weight: 15},
	{ID: "grand", Name: "Grand prize gift set", Weight: 5},
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	if v, err := decimal.NewFromString(getEnv(key, "")); err == nil {
		return v
	}
	return decimal.RequireFromString(def)
}

// getDecimalMap parses `KEY=value,KEY=value` pairs, e.g. "US=15.00,JP=12.50".
func getDecimalMap(key string, def map[string]decimal.Decimal) map[string]decimal.Decimal {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}

	out := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		if d, err := decimal.NewFromString(v); err == nil {
			out[strings.ToUpper(k)] = d
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// getPrizes reads a JSON prize array; bad input falls back to the defaults.
func getPrizes(key string) []domain.Prize {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultPrizes
	}

	var prizes []domain.Prize
	if err := json.Unmarshal([]byte(raw), &prizes); err != nil || len(prizes) == 0 {
		return defaultPrizes
	}
	return prizes
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
