package app

import (
	"net/http"

	"gorm.io/gorm"

	"casa360/internal/config"
	"casa360/internal/db"
	financedomain "casa360/internal/domain/finance"
	housedomain "casa360/internal/domain/house"
	tasksdomain "casa360/internal/domain/tasks"
	userdomain "casa360/internal/domain/user"
	financerepo "casa360/internal/repository/postgres/finance"
	houserepo "casa360/internal/repository/postgres/house"
	tasksrepo "casa360/internal/repository/postgres/tasks"
	userrepo "casa360/internal/repository/postgres/user"
	"casa360/internal/tenant"
	"casa360/internal/transport/httpserver"
	"casa360/internal/transport/httpserver/handler"
	"casa360/pkg/jwtutil"
	"casa360/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	userDB     *gorm.DB
	pools      *tenant.Registry
	log        logger.Logger
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: connecting to user database")
	userDB, err := db.NewPostgres(cfg.UserDB)
	if err != nil {
		return nil, err
	}

	log.Info("app: applying migrations")
	if err := db.Migrate(userDB); err != nil {
		_ = db.Close(userDB)
		return nil, err
	}

	pools, err := tenant.NewRegistry(userDB, cfg.Cluster, cfg.Tenant, log)
	if err != nil {
		_ = db.Close(userDB)
		return nil, err
	}

	provisioner, err := tenant.NewProvisioner(cfg.Cluster, cfg.Tenant, log)
	if err != nil {
		_ = db.Close(userDB)
		return nil, err
	}

	issuer, err := jwtutil.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		_ = db.Close(userDB)
		return nil, err
	}

	users := userdomain.NewService(userrepo.NewPostgres(userDB))
	houses := housedomain.NewService(houserepo.NewPostgres(userDB), provisioner, pools, log)
	finance := financedomain.NewService(financerepo.NewPostgres(pools))
	tasks := tasksdomain.NewService(tasksrepo.NewPostgres(pools))

	handlers := handler.New(users, houses, finance, tasks, issuer, log)
	router := httpserver.NewRouter(cfg, handlers, issuer, log)
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		userDB:     userDB,
		pools:      pools,
		log:        log,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Close releases the tenant pools first, then the shared user pool.
func (a *App) Close() error {
	if a.pools != nil {
		a.pools.Close()
	}
	return db.Close(a.userDB)
}
