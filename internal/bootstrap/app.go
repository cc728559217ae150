package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	googleauth "research-backend/internal/auth"
	"research-backend/internal/credentials"
	"research-backend/internal/ingestion"
	"research-backend/internal/papers"
	"research-backend/internal/shared/config"
	"research-backend/internal/shared/server"
	"research-backend/internal/shared/storage/db"
	"research-backend/internal/shared/storage/object"
	localstore "research-backend/internal/shared/storage/object/local"
	s3store "research-backend/internal/shared/storage/object/s3"
	"research-backend/internal/users"
)

// gmailReadScope grants read-only mailbox access; anything broader is
// rejected at consent time by most workspace policies.
const gmailReadScope = "https://www.googleapis.com/auth/gmail.readonly"

// App holds shared dependencies wired from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	UsersRepo       users.Repo
	CredentialsRepo credentials.Repo
	PapersRepo      papers.Repo

	UsersService       *users.Service
	CredentialsManager *credentials.Manager
	PapersService      *papers.Service
	IngestService      *ingestion.Service

	UsersHandler       *users.Handler
	CredentialsHandler *credentials.Handler
	PapersHandler      *papers.Handler
	IngestHandler      *ingestion.Handler
	GoogleAuth         *googleauth.GoogleService
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		GoogleAuth:         app.GoogleAuth,
		UsersHandler:       app.UsersHandler,
		CredentialsHandler: app.CredentialsHandler,
		PapersHandler:      app.PapersHandler,
		IngestHandler:      app.IngestHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var userRepo users.Repo
	var credRepo credentials.Repo
	var paperRepo papers.Repo

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		credRepo = &credentials.PGRepo{DB: app.DB}
		paperRepo = &papers.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		credRepo = credentials.NewMemoryRepo()
		paperRepo = papers.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo)

	gmailOAuth := &oauth2.Config{
		ClientID:     app.Config.GoogleClientID,
		ClientSecret: app.Config.GoogleClientSecret,
		RedirectURL:  app.Config.GmailRedirectURL,
		Scopes: []string{
			gmailReadScope,
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: google.Endpoint,
	}
	credManager := credentials.NewManager(credRepo, gmailOAuth)

	paperSvc := &papers.Service{
		Repo:         paperRepo,
		Store:        app.Store,
		SignedURLTTL: app.Config.SignedURLTTL,
	}

	ingestSvc := &ingestion.Service{
		Credentials: credManager,
		Papers:      paperSvc,
		NewMailbox:  ingestion.NewGmailFactory(),
		Query:       app.Config.IngestQuery,
		MaxResults:  app.Config.IngestMaxResults,
	}

	app.UsersRepo = userRepo
	app.CredentialsRepo = credRepo
	app.PapersRepo = paperRepo
	app.UsersService = userSvc
	app.CredentialsManager = credManager
	app.PapersService = paperSvc
	app.IngestService = ingestSvc
	app.UsersHandler = users.NewHandler(userSvc)
	app.CredentialsHandler = credentials.NewHandler(credRepo, gmailOAuth, app.Config.UIRedirectURL)
	app.PapersHandler = papers.NewHandler(paperSvc)
	app.IngestHandler = ingestion.NewHandler(ingestSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
}
