// Command cart-engine runs a scripted storefront session against the cart
// pricing engine: add items, apply a promo, price the cart and spin the
// lucky draw. Useful for poking at configuration without the web frontend.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/catalog"
	"github.com/fjod/cart-engine/internal/config"
	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/luckydraw"
	"github.com/fjod/cart-engine/internal/persistence"
	"github.com/fjod/cart-engine/internal/promo"
	"github.com/fjod/cart-engine/internal/service"
	"github.com/fjod/cart-engine/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New("cart-engine")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence: Redis when configured, otherwise process-local.
	var persist persistence.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		log.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		persist = persistence.NewRedisStore(redisClient, cfg.SessionID)
	} else {
		persist = persistence.NewMemoryStore()
	}

	// Promo reference data: a seeded table, kept fresh from Kafka when
	// brokers are configured.
	table := promo.NewMemoryRepository(domain.PromoCode{
		Code:  "WELCOME10",
		Type:  domain.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	})
	if len(cfg.PromoBrokers) > 0 {
		feed := promo.NewFeed(table, log, cfg.PromoTopic, cfg.PromoGroupID, cfg.PromoBrokers...)
		defer feed.Close()
		go feed.Run(ctx)
		log.Info("promo feed running", zap.Strings("brokers", cfg.PromoBrokers))
	}

	cat, err := catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout)
	if err != nil {
		log.Fatal("catalog client", zap.Error(err))
	}

	store := cart.NewStore(cfg.Limits)
	svc := service.NewCartService(store, cat, promo.NewResolver(table), persist, cfg.Pricing, cfg.DefaultCountry, log)

	if err := svc.Load(ctx); err != nil {
		log.Warn("starting with empty cart", zap.Error(err))
	}

	runSession(ctx, svc, cfg, log)

	<-ctx.Done()
	log.Info("shutting down")
}

func runSession(ctx context.Context, svc *service.CartService, cfg config.Config, log *zap.Logger) {
	for _, id := range []string{"lipstick-ruby", "serum-night"} {
		item, err := svc.AddItem(ctx, id, 1, domain.ItemOptions{})
		if err != nil {
			log.Warn("add item", zap.String("product_id", id), zap.Error(err))
			continue
		}
		log.Info("added item", zap.String("name", item.Name), zap.String("unit_price", item.UnitPrice.String()))
	}

	if err := svc.ApplyPromo(ctx, "welcome10"); err != nil {
		log.Warn("apply promo", zap.Error(err))
	}

	sum := svc.Summary()
	log.Info("cart priced",
		zap.String("subtotal", sum.Subtotal.String()),
		zap.String("discount", sum.Discount.String()),
		zap.String("shipping", sum.Shipping.String()),
		zap.String("tax", sum.Tax.String()),
		zap.String("total", sum.Total.String()),
		zap.String("remaining_for_free_shipping", sum.RemainingForFreeShipping.String()),
	)

	selector := luckydraw.NewSelector(cfg.Prizes, cfg.SpinDuration)
	defer selector.Close()

	ch, err := selector.Spin()
	if err != nil {
		log.Warn("spin", zap.Error(err))
		return
	}
	log.Info("spinning", zap.Duration("for", cfg.SpinDuration), zap.Int("min_spins", cfg.MinSpins))

	select {
	case result := <-ch:
		log.Info("draw result", zap.String("prize", result.PrizeName), zap.Time("drawn_at", result.DrawnAt))
		if err := selector.Acknowledge(); err != nil {
			log.Warn("acknowledge", zap.Error(err))
		}
		gate := luckydraw.NewCooldownGate(cfg.DrawCooldown)
		log.Info("next spin allowed", zap.Time("at", gate.NextAllowed(result.DrawnAt)))
	case <-ctx.Done():
	case <-time.After(cfg.SpinDuration + 5*time.Second):
		log.Warn("spin timed out")
	}
}
