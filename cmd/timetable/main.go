// timetable 一次性生成全校课表的管理命令
//
//	timetable [-config path] [-dry-run] [-keep-existing] [-snapshot file.json]
//	timetable -rollback
//
// 指定 -snapshot 时只对离线快照试运行，不连接数据库。
// -rollback 只回滚最近一次数据库迁移，不排课。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"edusync/backend/config"
	"edusync/backend/internal/dataset"
	"edusync/backend/internal/dto"
	"edusync/backend/internal/repository"
	"edusync/backend/internal/service"
	"edusync/backend/pkg/database"
	applogger "edusync/backend/pkg/logger"
	"edusync/backend/pkg/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "配置文件路径（默认 ./config/config.yaml）")
	dryRun := flag.Bool("dry-run", false, "只计算并输出结果，不写数据库")
	keepExisting := flag.Bool("keep-existing", false, "保留已有排课结果（跳过清空）")
	snapshot := flag.String("snapshot", "", "离线 JSON 数据快照；指定后不连接数据库")
	triggeredBy := flag.String("operator", "cli", "写入运行记录的操作人")
	rollback := flag.Bool("rollback", false, "回滚最近一次数据库迁移后退出")
	flag.Parse()

	cfg, err := config.LoadForCLI(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *rollback {
		if err := rollbackMigration(cfg, logger); err != nil {
			logger.Error("迁移回滚失败", zap.Error(err))
			return 1
		}
		return 0
	}

	var summary *dto.RunSummary
	if *snapshot != "" {
		summary, err = preview(ctx, cfg, *snapshot, logger)
	} else {
		summary, err = generate(ctx, cfg, &dto.GenerateRequest{DryRun: *dryRun, KeepExisting: *keepExisting}, *triggeredBy, logger)
	}
	if err != nil {
		logger.Error("课表生成失败", zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("输出结果失败", zap.Error(err))
		return 1
	}
	return 0
}

// preview 离线快照试运行
func preview(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) (*dto.RunSummary, error) {
	in, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("已加载离线快照",
		zap.String("path", path),
		zap.Int("courses", len(in.Courses)),
		zap.Int("sections", len(in.Sections)),
		zap.Int("faculty", len(in.Faculty)),
		zap.Int("course_sections", len(in.CourseSections)),
	)
	svc := service.NewTimetableService(&cfg.Scheduler, nil, service.NewLocalLocker(), logger)
	return svc.Preview(ctx, in)
}

// generate 连接数据库执行完整生成流程
func generate(ctx context.Context, cfg *config.Config, req *dto.GenerateRequest, triggeredBy string, logger *zap.Logger) (*dto.RunSummary, error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	// 与 HTTP 服务共用 Redis 锁，避免同时运行
	var locker service.RunLocker
	if rdb, err := redis.NewClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis 连接失败，使用进程内锁", zap.Error(err))
		locker = service.NewLocalLocker()
	} else {
		defer rdb.Close()
		locker = service.NewRedisLocker(rdb)
	}

	svc := service.NewTimetableService(&cfg.Scheduler, repository.NewRepository(db), locker, logger)
	return svc.Generate(ctx, req, triggeredBy)
}

// rollbackMigration 回滚最近一次迁移
func rollbackMigration(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	return database.RollbackMigration(sqlDB, logger)
}
