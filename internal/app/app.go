package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"backoffice/internal/auco"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/chat"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/database/migration"
	"backoffice/internal/http/handler"
	"backoffice/internal/logger"
	"backoffice/internal/muso"
	"backoffice/internal/pdf"
	"backoffice/internal/repository/postgres"
	"backoffice/internal/service"
	"backoffice/internal/storage"
)

// App owns every long-lived dependency of the backoffice: the database pool,
// object storage, Redis, the chat hub and the services built on top of them.
type App struct {
	Config   *config.AppConfig
	Log      *logger.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Hub      *chat.Hub
	Verifier *auth.Verifier

	Artists      service.ArtistService
	Participants service.ParticipantService
	Works        service.WorkService
	Templates    service.TemplateService
	Contracts    service.ContractService
	Signatures   service.SignatureService
	Signing      service.SigningService
	Verification service.VerificationService
	Royalties    service.RoyaltyService
	Statements   service.StatementService
	Tracks       service.TrackService
	Audio        service.AudioService
	Chat         service.ChatService
	Calendar     service.CalendarService
	Finance      service.FinanceService
	Muso         service.MusoService

	cancel  context.CancelFunc
	closers []func() error
}

// New connects to every backend named in cfg and wires the services. On
// error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log, Hub: chat.NewHub()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openDatabase(ctx); err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	kv, bus, err := a.openRedis(ctx)
	if err != nil {
		return nil, err
	}

	if a.Verifier, err = auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer); err != nil {
		if cfg.Env == "prod" || cfg.Env == "production" {
			return nil, err
		}
		log.Warn("authentication disabled", "reason", err)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := service.NewMetrics(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	a.wireServices(store, kv, bus, metrics)

	fwdCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Hub.OnDrop(func(projectID string) {
		log.Warn("chat message dropped for slow client", "project_id", projectID)
	})
	if err := bus.StartForwarder(fwdCtx, a.Hub.Dispatch); err != nil {
		return nil, fmt.Errorf("start chat forwarder: %w", err)
	}
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	db, err := database.NewPostgres(a.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if a.Config.Database.AutoMigrate {
		if err := migration.Up(ctx, db, a.Log, a.Config.Database.Host); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	return nil
}

// openRedis returns the Redis backed cache and chat bus, or in-process
// replacements when REDIS_ADDR is unset.
func (a *App) openRedis(ctx context.Context) (cache.Cache, chat.Bus, error) {
	if a.Config.Redis.Addr == "" {
		a.Log.Warn("REDIS_ADDR not set, using in-memory cache and chat bus")
		bus := chat.NewMemoryBus()
		a.closers = append(a.closers, bus.Close)
		return cache.NewMemory(), bus, nil
	}

	rdb, err := cache.Dial(ctx, a.Config.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)

	bus, err := chat.NewRedisBus(rdb, a.Config.Redis.ChannelPrefix, a.Log)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, bus.Close)
	return cache.NewRedis(rdb, "backoffice"), bus, nil
}

func (a *App) wireServices(store storage.Storage, kv cache.Cache, bus chat.Bus, metrics *service.Metrics) {
	cfg := a.Config
	db := database.Wrap(a.DB)

	artistRepo := postgres.NewArtistPostgres(db)
	workRepo := postgres.NewWorkPostgres(db)
	templateRepo := postgres.NewTemplatePostgres(db)
	contractRepo := postgres.NewContractPostgres(db)
	signatureRepo := postgres.NewSignaturePostgres(db)

	renderers := []pdf.Renderer{}
	if cfg.PDF.PDFShiftKey != "" {
		renderers = append(renderers, pdf.NewPDFShift(cfg.PDF.PDFShiftURL, cfg.PDF.PDFShiftKey, cfg.PDF.Timeout))
	}
	renderers = append(renderers, pdf.NewChrome(cfg.PDF.ChromeBin))

	a.Artists = service.NewArtistService(artistRepo)
	participantRepo := postgres.NewParticipantPostgres(db)
	a.Participants = service.NewParticipantService(participantRepo)
	a.Verification = service.NewVerificationService(participantRepo, cfg.Auco.WebhookSecret, a.Log)
	a.Works = service.NewWorkService(workRepo)
	a.Templates = service.NewTemplateService(templateRepo, a.Log)
	a.Contracts = service.NewContractService(contractRepo, workRepo, templateRepo, signatureRepo)
	a.Signatures = service.NewSignatureService(signatureRepo, contractRepo)
	a.Signing = service.NewSigningService(
		auco.New(cfg.Auco, a.Log),
		pdf.NewChain(a.Log, renderers...),
		store,
		contractRepo,
		signatureRepo,
		service.SigningConfig{OwnerEmail: cfg.Auco.OwnerEmail, WebhookToken: cfg.Auco.WebhookToken},
		a.Log,
		metrics,
	)
	a.Royalties = service.NewRoyaltyService(store, postgres.NewRoyaltyReportPostgres(db), artistRepo, a.Log, metrics)
	a.Statements = service.NewStatementService(postgres.NewStatementPostgres(db), a.Artists, a.Log)
	a.Tracks = service.NewTrackService(postgres.NewTrackPostgres(db), store, cfg.PublicBaseURL, a.Log)
	a.Audio = service.NewAudioService(postgres.NewAudioEventPostgres(db))
	a.Chat = service.NewChatService(postgres.NewChatPostgres(db), bus, a.Log)
	a.Calendar = service.NewCalendarService(postgres.NewCalendarPostgres(db))
	a.Finance = service.NewFinanceService(postgres.NewFinancePostgres(db))
	a.Muso = service.NewMusoService(
		muso.New(cfg.Muso),
		postgres.NewMusoPostgres(db),
		kv,
		service.MusoConfig{CreditsTTL: cfg.Muso.CreditsTTL, Concurrent: cfg.Muso.SyncConcurrent},
		a.Log,
	)
}

// Routes returns the dependency set for handler.RegisterRoutes.
func (a *App) Routes() handler.Deps {
	return handler.Deps{
		DB:           a.DB,
		Verifier:     a.Verifier,
		Gatherer:     a.Registry,
		Hub:          a.Hub,
		Log:          a.Log,
		Artists:      a.Artists,
		Participants: a.Participants,
		Works:        a.Works,
		Templates:    a.Templates,
		Contracts:    a.Contracts,
		Signatures:   a.Signatures,
		Signing:      a.Signing,
		Verification: a.Verification,
		Royalties:    a.Royalties,
		Statements:   a.Statements,
		Tracks:       a.Tracks,
		Audio:        a.Audio,
		Chat:         a.Chat,
		Calendar:     a.Calendar,
		Finance:      a.Finance,
		Muso:         a.Muso,
	}
}

// Close stops the chat forwarder and releases connections in reverse order.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
