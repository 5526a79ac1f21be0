package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrymomot/authgate/api"
	"github.com/dmitrymomot/authgate/auth"
	"github.com/dmitrymomot/authgate/pkg/config"
	"github.com/dmitrymomot/authgate/pkg/email"
	"github.com/dmitrymomot/authgate/pkg/httpserver"
	"github.com/dmitrymomot/authgate/pkg/jwt"
	"github.com/dmitrymomot/authgate/pkg/logger"
	"github.com/dmitrymomot/authgate/pkg/mongo"
	"github.com/dmitrymomot/authgate/pkg/redis"
	"github.com/dmitrymomot/authgate/pkg/requestid"
	"github.com/dmitrymomot/authgate/storage/mongodb"
	"github.com/dmitrymomot/authgate/storage/redisdb"
)

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, "authgate",
		logger.WithContextExtractors(requestid.LoggerExtractor()))

	if err := run(ctx, log); err != nil {
		log.Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		authCfg   auth.Config
		jwtCfg    jwt.Config
		mongoCfg  mongo.Config
		redisCfg  redis.Config
		emailCfg  email.Config
		serverCfg httpserver.Config
	)
	config.MustLoad(&authCfg)
	config.MustLoad(&jwtCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&serverCfg)

	tokens, err := jwt.New(jwtCfg)
	if err != nil {
		return err
	}

	mongoClient, err := mongo.Connect(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	store := mongodb.NewUserStore(mongoClient.Database(mongoCfg.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	// Without Postmark credentials outgoing mail is written to local files,
	// which keeps the full verification and reset flows usable in development.
	var mailer email.EmailSender
	if err := config.Load(&emailCfg); err == nil && emailCfg.PostmarkServerToken != "" {
		mailer, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn("postmark is not configured, writing emails to ./emails")
		mailer = email.NewDevSender("./emails")
	}

	svc := auth.NewService(store, tokens, mailer, authCfg.BaseURL,
		auth.WithLogger(log),
		auth.WithDenylist(redisdb.NewDenylist(redisClient)),
		auth.WithBcryptCost(authCfg.BcryptCost),
		auth.WithVerificationTTL(authCfg.VerificationTTL),
		auth.WithResetTTL(authCfg.ResetTTL),
	)

	var oauthHandlers *api.OAuthHandlers
	var googleCfg auth.GoogleOAuthConfig
	if err := config.Load(&googleCfg); err == nil {
		oauthSvc := auth.NewOAuthService(store, tokens, auth.NewGoogleAdapter(googleCfg),
			auth.WithOAuthLogger(log))
		oauthHandlers = api.NewOAuthHandlers(oauthSvc, log)
	} else {
		log.Warn("google oauth is not configured, endpoints disabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Auth:   api.NewAuthHandlers(svc, log),
		OAuth:  oauthHandlers,
		Tokens: tokens,
		Store:  store,
		Healthchecks: map[string]api.Healthcheck{
			"mongo": mongo.Healthcheck(mongoClient),
			"redis": redis.Healthcheck(redisClient),
		},
	})

	return httpserver.New(serverCfg, log).Run(ctx, router)
}
