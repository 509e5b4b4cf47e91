package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/config"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/repository"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/seed"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type app struct {
	cfg     *config.Config
	dbpool  *sql.DB
	repo    *repository.Repository
	catalog *catalog.Catalog
}

var a = &app{}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "向数据库中插入测试数据或导入用户",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.dbpool != nil {
				_ = a.dbpool.Close()
			}
		},
	}

	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(importUsersCmd())
	rootCmd.AddCommand(allocationsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("无法读取 .env 文件: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}
	a.cfg = cfg

	// 创建数据库连接池
	dbpool, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("无法创建数据库连接池: %w", err)
	}
	a.dbpool = dbpool

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if cfg.Database.Driver == repository.DriverSQLite {
		dbpool.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		return fmt.Errorf("无法连接到数据库: %w", err)
	}

	a.repo = repository.NewRepository(cfg, dbpool)
	if err := a.repo.Migrate(context.Background()); err != nil {
		return fmt.Errorf("无法执行数据库迁移: %w", err)
	}

	a.catalog, err = catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("无法加载工位目录: %w", err)
	}

	return nil
}

func usersCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "插入随机用户，密码为 SEED_USER_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("请输入合法的用户数量")
			}

			cnt := 0
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(a.catalog, a.cfg.Seed.User.Password, a.cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := a.repo.CreateUser(cmd.Context(), user); err != nil {
					slog.Error("无法插入用户", slog.String("email", user.Email), slog.String("error", err.Error()))
					continue
				}

				cnt++
			}

			slog.Info("插入用户成功", slog.Int("count", cnt))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 5, "要插入的用户数量")
	return cmd
}

func importUsersCmd() *cobra.Command {
	var file string
	var out string

	cmd := &cobra.Command{
		Use:   "import-users",
		Short: "从 CSV 导入用户，为每个新用户生成随机初始密码",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(file)
			if err != nil {
				return err
			}
			defer in.Close()

			importer := seed.NewImporter(a.repo, a.catalog, a.cfg.Email.UserDomain, func() string {
				return utils.GenerateRandomPassword(a.cfg.NewUser.PasswordLength)
			})

			credentials, err := importer.ImportUsers(cmd.Context(), in)
			if err != nil {
				return err
			}

			// 初始密码只在这里输出一次
			w := csv.NewWriter(cmd.OutOrStdout())
			if out != "" {
				f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				w = csv.NewWriter(f)
			}

			if err := w.Write([]string{"email", "password"}); err != nil {
				return err
			}
			for _, c := range credentials {
				if err := w.Write([]string{c.Email, c.Password}); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}

			slog.Info("导入用户成功", slog.Int("count", len(credentials)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "用户 CSV 文件（name,email,role,sub_role）")
	cmd.Flags().StringVarP(&out, "out", "o", "", "初始密码输出文件，默认输出到标准输出")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func allocationsCmd() *cobra.Command {
	var n int
	var days int

	cmd := &cobra.Command{
		Use:   "allocations",
		Short: "插入最近若干天内的随机分配记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 || days < 0 {
				return errors.New("请输入合法的记录数量和天数")
			}

			// 分配人从已有用户中随机选取
			users, err := a.repo.GetAllUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				return errors.New("数据库中没有用户，请先插入用户")
			}

			cnt := 0
			for i := 0; i < n; i++ {
				allocation := utils.GenerateRandomAllocation(a.catalog, users[i%len(users)].Name, days)
				if allocation == nil {
					continue
				}

				if err := a.repo.InsertAllocation(cmd.Context(), allocation); err != nil {
					slog.Error("无法插入分配记录", slog.String("error", err.Error()))
					continue
				}

				cnt++
			}

			slog.Info("插入分配记录成功", slog.Int("count", cnt))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "number", "n", 20, "要插入的记录数量")
	cmd.Flags().IntVar(&days, "days", 30, "记录日期分布在最近多少天内")
	return cmd
}
