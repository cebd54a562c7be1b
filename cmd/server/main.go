package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/api"
	"github.com/wfunc/campaign-bot/internal/config"
	"github.com/wfunc/campaign-bot/internal/database"
	"github.com/wfunc/campaign-bot/internal/errors"
	"github.com/wfunc/campaign-bot/internal/logger"
	"github.com/wfunc/campaign-bot/internal/service"
	"github.com/wfunc/campaign-bot/internal/transcript"
	"github.com/wfunc/campaign-bot/internal/utils"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	log := logger.GetLogger()
	log.Info("正在启动战役管理服务器...",
		zap.String("version", Version),
		zap.String("mode", cfg.Server.Mode),
	)

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		log.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	// 解析加密密钥
	encryptionKey, err := base64.StdEncoding.DecodeString(cfg.Security.EncryptionKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "解析加密密钥失败")
	}

	// 初始化服务
	services, err := service.NewServices(database.GetDB(), &service.Config{
		EncryptionKey: encryptionKey,
	}, log)
	if err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化服务失败")
	}

	// 会话记录器
	transcriptLogger := transcript.NewLogger(
		cfg.Transcript.BaseDir,
		cfg.Transcript.MaxSize,
		cfg.Transcript.MaxBackups,
		logger.GetModuleLogger("transcript"),
	)

	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.TokenExpiry)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(database.GetDB(), services, transcriptLogger, jwtManager, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP服务已启动", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		log.Info("配置已更新")
	})

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-errCh:
		return errors.Wrap(err, errors.ErrUnknown, "HTTP服务异常退出")
	case sig := <-sigCh:
		log.Info("收到退出信号", zap.String("signal", sig.String()))
	}

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "关闭HTTP服务失败")
	}

	log.Info("服务器已安全关闭")
	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("战役管理服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
