package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"recipe-api/api"
	"recipe-api/contentful"
	"recipe-api/llm"
	"recipe-api/processor"
	"recipe-api/spoonacular"
	"recipe-api/storage"
	"recipe-api/weather"
)

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envDurOr(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return d
}

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	if connStr == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, storage.Tables{
		Favorites:     envOr("FAVORITES_TABLE", "favorites"),
		Collections:   envOr("COLLECTIONS_TABLE", "collections"),
		Notes:         envOr("NOTES_TABLE", "notes"),
		Analyses:      envOr("ANALYSES_TABLE", "analyses"),
		AnalysisQueue: envOr("ANALYSIS_QUEUE", "analysis-requests"),
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	responseCache := storage.NewResponseCache(rc)
	cachedStore := storage.NewCache(store, rc, envDurOr("USER_CACHE_TTL", 5*time.Minute))
	deduper := api.NewRedisDeduper(rc, envDurOr("DEDUPER_TTL", 24*time.Hour))

	spoonKey := os.Getenv("SPOONACULAR_API_KEY")
	if spoonKey == "" {
		log.Fatal("missing Spoonacular config")
	}
	recipes := spoonacular.New(envOr("SPOONACULAR_BASE_URL", "https://api.spoonacular.com"), spoonKey, responseCache)

	spaceID := os.Getenv("CONTENTFUL_SPACE_ID")
	accessToken := os.Getenv("CONTENTFUL_ACCESS_TOKEN")
	if spaceID == "" || accessToken == "" {
		log.Fatal("missing Contentful config")
	}
	content := contentful.New(
		envOr("CONTENTFUL_BASE_URL", "https://cdn.contentful.com"),
		spaceID,
		envOr("CONTENTFUL_ENVIRONMENT", "master"),
		accessToken,
	)

	conditions := weather.New(envOr("WEATHER_BASE_URL", "https://api.open-meteo.com"))

	llmKey := os.Getenv("LLM_API_KEY")
	llmBase := os.Getenv("LLM_BASE_URL")
	if llmKey == "" || llmBase == "" {
		log.Fatal("missing LLM config")
	}
	model := llm.New(llmBase, llmKey, envOr("LLM_MODEL", "gpt-4o-mini"))

	testMode := os.Getenv("AUTH0_TEST_MODE") == "1" || os.Getenv("LOCAL_AUTH_MODE") != ""
	var auth *api.Auth
	if testMode {
		auth = api.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		domain := os.Getenv("AUTH0_DOMAIN")
		if jwtAudience == "" || domain == "" {
			log.Fatal("missing Auth0 config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = api.NewAuth(jwks, jwtAudience, "https://"+domain+"/")
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("recipe_api"))
	e.GET("/metrics", echoprometheus.NewHandler())

	logger := log.New()
	api.Register(e, api.Deps{
		Recipes:  recipes,
		Content:  content,
		Weather:  conditions,
		Modifier: model,
		Store:    cachedStore,
		Cache:    responseCache,
		Auth:     auth,
		Deduper:  deduper,
		Version:  envOr("VERSION", "dev"),
		Log:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	proc := processor.New(store, recipes, model, envDurOr("ANALYSIS_POLL_INTERVAL", 5*time.Second), logger)
	go proc.Run(ctx)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	} else if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
