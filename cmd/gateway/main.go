// file: cmd/gateway/main.go

package main

import (
	"RangeGate/internal/adapter/datasource/sqlstore"
	"RangeGate/internal/aegconf"
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/aegobserve"
	"RangeGate/internal/core/domain"
	"RangeGate/internal/core/port"
	"RangeGate/internal/gateway"
	"RangeGate/internal/transport/http/router"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const version = "v1.0.0"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	adminSubject := flag.String("admin-token", "", "为指定管理员签发令牌并退出")
	flag.Parse()

	// 在日志系统完全初始化前，使用标准 log
	log.Printf("RangeGate gateway %s 正在启动...", version)

	cfg, err := aegconf.Load(*configPath)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}

	adminAuth, err := aegmiddleware.NewAdminAuthenticator(cfg.Admin.JWTKey, cfg.Admin.Issuer)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	if *adminSubject != "" {
		token, err := adminAuth.GenToken(*adminSubject, aegmiddleware.RoleAdmin, cfg.Admin.TokenTTL)
		if err != nil {
			log.Fatalf("CRITICAL: 签发管理员令牌失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	aegobserve.InitLogger(cfg.Server.LogLevel)
	slog.Info("配置加载并解析成功", "path", *configPath, "version", version)

	if err := run(cfg, adminAuth); err != nil {
		slog.Error("程序异常退出", "error", err)
		os.Exit(1)
	}
	slog.Info("程序即将退出。")
}

func run(cfg *aegconf.Config, adminAuth *aegmiddleware.AdminAuthenticator) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy, err := domain.NewPolicy(cfg.PolicyOptions())
	if err != nil {
		return fmt.Errorf("构建白名单策略失败: %w", err)
	}
	slog.Info("白名单策略已加载", "tables", policy.Tables(), "allow_in_for_mutations", policy.AllowInForMutations())

	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	store, err := sqlstore.Open(openCtx, cfg.StoreOptions())
	cancelOpen()
	if err != nil {
		return err
	}
	defer func() {
		slog.Info("正在关闭数据库连接...")
		if err := store.Close(); err != nil {
			slog.Error("关闭数据库时发生错误", "error", err)
		}
	}()

	var schemas port.SchemaIntrospector = store
	if cfg.Policy.SchemaCacheTTL > 0 {
		schemas = gateway.NewCachingIntrospector(store, cfg.Policy.SchemaCacheSize, cfg.Policy.SchemaCacheTTL)
		slog.Info("schema 缓存已启用", "ttl", cfg.Policy.SchemaCacheTTL, "size", cfg.Policy.SchemaCacheSize)
	}

	svc, err := gateway.NewService(policy, schemas, store, store.Dialect())
	if err != nil {
		return err
	}

	guard, err := aegmiddleware.NewAccessGuard(cfg.GuardOptions())
	if err != nil {
		return err
	}

	var limiter *aegmiddleware.BusinessRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = aegmiddleware.NewBusinessRateLimiter(cfg.LimitSettings())
		defer limiter.Close()
	}

	aegobserve.Register()
	slog.Info("监控: metrics 已注册。")

	gin.SetMode(gin.ReleaseMode)
	httpRouter := router.New(router.Dependencies{
		Gateway:        svc,
		Store:          store,
		Guard:          guard,
		Limiter:        limiter,
		Admin:          adminAuth,
		GuardHeader:    cfg.Access.Header,
		MetricsPath:    cfg.Server.MetricsPath,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	servers := []*http.Server{{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if pprofServer := aegobserve.NewPprofServer(cfg.Server.PprofAddr); pprofServer != nil {
		servers = append(servers, pprofServer)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			slog.Info("开始监听HTTP请求", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP服务 %s 启动失败: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("收到停机信号，准备优雅关闭...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP服务 %s 优雅关闭失败: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
