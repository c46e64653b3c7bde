package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/config"
	"github.com/sysu-ecnc-dev/timesheet/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "向数据库中写入演示数据",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newOrgCmd(), newUsersCmd(), newEntriesCmd(), newImportCmd())
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("执行失败", "error", err)
		os.Exit(1)
	}
}

// connect 读取配置并建立数据库连接，返回的 cleanup 负责关闭连接池
func connect(ctx context.Context) (*config.Config, *repository.Repository, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		dbpool.Close()
		return nil, nil, nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	return cfg, repository.NewRepository(cfg, dbpool), func() { dbpool.Close() }, nil
}
