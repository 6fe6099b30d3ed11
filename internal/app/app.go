package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/handlers"
	"taskflow/internal/logger"
	"taskflow/internal/middleware"
	"taskflow/internal/migrations"
	"taskflow/internal/notifier"
	"taskflow/internal/repository/inmemory"
	"taskflow/internal/repository/postgres"
	"taskflow/internal/service"
	"taskflow/internal/timectx"
	"taskflow/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repositories groups the storage the services run on.
type Repositories struct {
	Tasks         service.TaskRepository
	Sections      service.SectionRepository
	Projects      service.ProjectRepository
	Subscriptions service.SubscriptionRepository
}

type Services struct {
	Tasks         *service.TaskService
	Sections      *service.SectionService
	Projects      *service.ProjectService
	Subscriptions *service.SubscriptionService
}

type App struct {
	config    *config.Config
	repos     Repositories
	services  Services
	router    *chi.Mux
	worker    *worker.ReminderWorker
	shutdowns []func()
}

func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Init builds the storage, services, router and worker. Resources that need
// releasing are registered for Close.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, logger.Sync)

	repos, err := a.openRepositories(ctx)
	if err != nil {
		return err
	}
	a.repos = repos
	a.services = NewServices(repos, timectx.SystemClock{})
	a.router = a.buildRouter()
	a.worker = a.buildWorker()
	return nil
}

func (a *App) openRepositories(ctx context.Context) (Repositories, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		db := a.config.Database
		if db.MigrateOnStart {
			if err := migrations.Up(db.URL); err != nil {
				return Repositories{}, fmt.Errorf("migrate database: %w", err)
			}
		}
		storage, err := postgres.New(ctx, db.URL,
			postgres.WithMaxConns(db.MaxConnections),
			postgres.WithMinConns(db.MinConnections),
			postgres.WithIdleTimeout(db.IdleTimeout),
			postgres.WithConnectRetries(db.ConnectRetries),
		)
		if err != nil {
			return Repositories{}, fmt.Errorf("open postgres: %w", err)
		}
		// Close runs shutdowns in reverse, so the pool closes before the logger syncs.
		a.shutdowns = append(a.shutdowns, storage.Close)
		logger.Info("App: Using postgres repositories")
		return Repositories{
			Tasks:         storage.Tasks(),
			Sections:      storage.Sections(),
			Projects:      storage.Projects(),
			Subscriptions: storage.Subscriptions(),
		}, nil
	default:
		logger.Warn("App: Using in-memory repositories, data is lost on restart")
		return InMemoryRepositories(), nil
	}
}

func InMemoryRepositories() Repositories {
	return Repositories{
		Tasks:         inmemory.NewTaskStorage(),
		Sections:      inmemory.NewSectionStorage(),
		Projects:      inmemory.NewProjectStorage(),
		Subscriptions: inmemory.NewSubscriptionStorage(),
	}
}

func NewServices(repos Repositories, clock timectx.Clock) Services {
	subscriptions := service.NewSubscriptionService(repos.Subscriptions, repos.Sections, timectx.NewResolver(), clock)
	return Services{
		Tasks:         service.NewTaskService(repos.Tasks, repos.Projects, subscriptions, clock),
		Sections:      service.NewSectionService(repos.Sections, repos.Tasks, subscriptions, clock),
		Projects:      service.NewProjectService(repos.Projects, repos.Tasks, clock),
		Subscriptions: subscriptions,
	}
}

func (a *App) buildRouter() *chi.Mux {
	srv := a.config.Server
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: srv.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	if srv.RequestTimeout > 0 {
		r.Use(middleware.Timeout(srv.RequestTimeout))
	}
	if srv.RateLimit > 0 {
		r.Use(middleware.RateLimit(srv.RateLimit))
	}

	h := handlers.NewHandler(a.services.Tasks, a.services.Sections, a.services.Projects, a.services.Subscriptions)
	h.Routes(r)
	return r
}

func (a *App) buildWorker() *worker.ReminderWorker {
	rc := a.config.Reminders
	if !rc.Enabled {
		return nil
	}
	var n worker.Notifier = notifier.LogNotifier{}
	if rc.WebhookURL != "" {
		n = notifier.NewWebhookNotifier(rc.WebhookURL,
			notifier.WithTimeout(rc.WebhookTimeout),
			notifier.WithRetries(rc.WebhookRetries, 500*time.Millisecond))
	}
	return worker.NewReminderWorker(a.repos.Tasks, n,
		worker.WithInterval(rc.Interval),
		worker.WithBatchSize(rc.BatchSize))
}

// Handler is the instrumented HTTP handler of the API.
func (a *App) Handler() http.Handler {
	return otelhttp.NewHandler(a.router, "taskflow")
}

func (a *App) Services() Services {
	return a.services
}

// Run serves HTTP and runs the reminder worker until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	return a.serve(ctx, func() (net.Listener, error) {
		return net.Listen("tcp", a.config.GetServerAddr())
	})
}

func (a *App) serve(ctx context.Context, listen func() (net.Listener, error)) error {
	srv := a.config.Server
	server := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
	}
	ln, err := listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("App: Server started", zap.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}
	return g.Wait()
}

// Close releases everything Init acquired, newest first.
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
