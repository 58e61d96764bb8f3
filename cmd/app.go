package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance"
	attendanceMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/mongodb"
	attendancePostgres "github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/postgres"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/auth"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/events"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/timeclock"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	leaveMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/leave/mongodb"
	leavePostgres "github.com/DeependraDeveloper/AMS-BACKEND/internal/leave/postgres"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/transport/rest"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	userMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/user/mongodb"
	userPostgres "github.com/DeependraDeveloper/AMS-BACKEND/internal/user/postgres"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

type repositories struct {
	users      user.Repository
	attendance attendance.Repository
	leaves     leave.Repository
	checks     map[string]rest.Check
	close      func(ctx context.Context) error
}

// App holds the wired services shared by the server and seed commands.
type App struct {
	Config *internal.Config
	Logger *slog.Logger
	Bus    *events.EventBus
	Clock  *timeclock.Clock

	Users      *user.Service
	Auth       *auth.Service
	Attendance *attendance.Service
	Leave      *leave.Service

	Checks map[string]rest.Check
	close  func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg *internal.Config, lg *slog.Logger) (*App, error) {
	loc, err := cfg.Attendance.Location()
	if err != nil {
		return nil, err
	}

	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(lg)
	clock := timeclock.NewClock(loc)
	hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost)

	users := user.NewService(repos.users, hasher, lg)
	authSvc := auth.NewService(users, auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenTTL), hasher, lg)

	return &App{
		Config:     cfg,
		Logger:     lg,
		Bus:        bus,
		Clock:      clock,
		Users:      users,
		Auth:       authSvc,
		Attendance: attendance.NewService(repos.attendance, users, clock, bus, lg),
		Leave:      leave.NewService(repos.leaves, users, clock, bus, lg),
		Checks:     repos.checks,
		close:      repos.close,
	}, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.close == nil {
		return nil
	}
	return a.close(ctx)
}

func openRepositories(ctx context.Context, cfg internal.DatabaseConfig) (*repositories, error) {
	switch cfg.Driver {
	case internal.DriverMongo:
		return openMongo(ctx, cfg)
	case internal.DriverPostgres:
		return openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func connectMongo(ctx context.Context, cfg internal.DatabaseConfig) (*database.MongoDB, error) {
	return database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, database.MongoOptions{
		MaxPoolSize:     uint64(cfg.MaxOpenConns),
		MinPoolSize:     uint64(cfg.MaxIdleConns),
		MaxConnIdleTime: cfg.ConnMaxIdleTime,
	})
}

// openMongo connects and builds the repositories, which also ensures their
// indexes.
func openMongo(ctx context.Context, cfg internal.DatabaseConfig) (repos *repositories, err error) {
	db, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = db.Close(context.Background())
		}
	}()

	users, err := userMongo.NewRepository(ctx, db, cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}
	att, err := attendanceMongo.NewRepository(ctx, db, cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}
	leaves, err := leaveMongo.NewRepository(ctx, db, cfg.QueryTimeout)
	if err != nil {
		return nil, err
	}

	return &repositories{
		users:      users,
		attendance: att,
		leaves:     leaves,
		checks:     map[string]rest.Check{"mongodb": db.Ping},
		close:      db.Close,
	}, nil
}

func openPostgres(cfg internal.DatabaseConfig) (*repositories, error) {
	sqlDB, gormDB, err := database.OpenPostgres(cfg.GetDSN(), database.PostgresOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, err
	}

	return &repositories{
		users:      userPostgres.NewUserRepository(gormDB, cfg.QueryTimeout),
		attendance: attendancePostgres.NewAttendanceRepository(gormDB, cfg.QueryTimeout),
		leaves:     leavePostgres.NewLeaveRepository(gormDB, cfg.QueryTimeout),
		checks:     map[string]rest.Check{"postgres": sqlDB.PingContext},
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}
