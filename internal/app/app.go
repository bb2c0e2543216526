package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/watchparty/server/internal/controller"
	auditrepo "github.com/watchparty/server/internal/repository/audit"
	auditsqlite "github.com/watchparty/server/internal/repository/audit/sqlite"
	conninmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	roomredis "github.com/watchparty/server/internal/repository/room/redis"
	userrepo "github.com/watchparty/server/internal/repository/user"
	usersqlite "github.com/watchparty/server/internal/repository/user/sqlite"
	auditservice "github.com/watchparty/server/internal/service/audit"
	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/redisclient"
)

type AppConfig struct {
	Secret         string        `json:"-"`
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	LogLevel       string        `json:"log_level"`
	MembersLimit   int           `json:"members_limit"`
	RoomTTL        time.Duration `json:"room_ttl"`
	TokenTTL       time.Duration `json:"token_ttl"`
	AuditQueueSize int           `json:"audit_queue_size"`
	DBPath         string        `json:"db_path"`
	RedisPort      int           `json:"redis_port"`
	RedisHost      string        `json:"redis_host"`
	RedisPassword  string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.AuditQueueSize < 1 {
		return fmt.Errorf("audit queue size must be greater than 0")
	}
	return nil
}

const roomCodeLength = 6

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(
		&userrepo.User{},
		&auditrepo.ChatMessage{},
		&auditrepo.Membership{},
		&auditrepo.PlaybackLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	auditService := auditservice.NewService(auditsqlite.NewRepo(db), cfg.AuditQueueSize, logger)
	authService := auth.NewService(usersqlite.NewRepo(db), &auth.Config{
		Secret:   cfg.Secret,
		TokenTTL: cfg.TokenTTL,
	}, logger)
	roomService := room.NewService(
		roomredis.NewRepo(rc, cfg.RoomTTL, logger),
		conninmemory.NewRepo(logger),
		auditService,
		&room.Config{
			MembersLimit: cfg.MembersLimit,
			CodeLength:   roomCodeLength,
		},
		logger,
	)

	c := controller.NewController(roomService, authService, auditService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: c.GetMux()}

	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
			return
		}

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	g, gCtx := errgroup.WithContext(serverCtx)

	g.Go(func() error {
		return auditService.Run(gCtx)
	})

	g.Go(func() error {
		logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		serverStopCtx()
		return nil
	})

	return g.Wait()
}
