package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/storage"
)

func main() {
	cfg, err := ParseConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := runMigrations(ctx, db); err != nil {
		log.Fatal(err)
	}

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	uploader, err := storage.NewS3Uploader(ctx, cfg.StorageConfig())
	if err != nil {
		log.Fatal(err)
	}

	provider := accounts.NewUserProvider(repo.Users())
	authenticator := accounts.NewAuthenticator(provider, repo.Users(), cfg)

	httpAuth, err := accounts.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{
		AppName: "go-accounts",
	})

	accounts.RegisterAuthRoutes(app, func(ac *accounts.AuthController) *accounts.AuthController {
		ac.Auther = httpAuth
		ac.Repo = repo
		ac.Uploads = uploader
		return ac
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal(err)
		}
	}()

	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("database close error: %v", err)
	}
}

// runMigrations executes the embedded SQL migrations in lexical order.
func runMigrations(ctx context.Context, db *bun.DB) error {
	root := "data/sql/migrations"

	var files []string
	err := fs.WalkDir(accounts.GetMigrationsFS(), root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(files)

	for _, file := range files {
		if !strings.HasSuffix(file, ".up.sql") {
			continue
		}

		contents, err := fs.ReadFile(accounts.GetMigrationsFS(), file)
		if err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return err
		}
	}

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
