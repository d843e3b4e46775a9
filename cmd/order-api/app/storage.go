package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aq2208/order-api/configs"
	"github.com/aq2208/order-api/internal/adapter/repo"
	"github.com/aq2208/order-api/internal/usecase"
)

type storage struct {
	orders   usecase.OrderRepo
	products usecase.ProductLookup
	close    func()
}

func openStorage(ctx context.Context, cfg configs.Config) (storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	switch cfg.Storage.Driver {
	case "mysql":
		db, err := repo.ConnectMySQL(ctx, repo.MySQLOptions{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		})
		if err != nil {
			return storage{}, err
		}
		if cfg.MySQL.MigrationsPath != "" {
			if err := repo.RunMySQLMigrations(db, cfg.MySQL.MigrationsPath); err != nil {
				_ = db.Close()
				return storage{}, err
			}
		}
		return storage{
			orders:   repo.NewMySQLOrderRepo(db),
			products: repo.NewMySQLProductRepo(db),
			close:    func() { _ = db.Close() },
		}, nil

	case "mongo":
		db, err := repo.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return storage{}, err
		}
		orders := repo.NewMongoOrderRepo(db)
		if err := orders.CreateIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return storage{}, err
		}
		return storage{
			orders:   orders,
			products: repo.NewMongoProductRepo(db),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = db.Client().Disconnect(ctx)
			},
		}, nil

	default:
		return storage{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
