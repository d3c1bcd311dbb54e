// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"voter-geo/internal/api"
	"voter-geo/internal/geocode"
	"voter-geo/internal/geosync"
	"voter-geo/internal/logger"
	"voter-geo/internal/metrics"
	"voter-geo/internal/middleware"
	"voter-geo/internal/migrate"
	"voter-geo/internal/store"
	"voter-geo/internal/utils"
	"voter-geo/internal/version"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	l.Info("votergeo_start", "version", version.Version)

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	st := store.AttachDB(db)
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
	} else {
		l.Info("redis_ping_ok")
	}

	// 地理编码提供方：主用 Nominatim 兼容实例；配置了备用地址时串成兜底链
	var provider geocode.Provider = geocode.NewClientFromEnv()
	if fb := os.Getenv("GEOCODE_FALLBACK_URL"); fb != "" {
		fallback := &geocode.Client{BaseURL: fb, Email: os.Getenv("GEOCODE_EMAIL"), HTTP: &http.Client{Timeout: 5 * time.Second}}
		provider = geocode.NewChain(provider.(*geocode.Client), fallback)
		l.Info("geocode_fallback_enabled", "url", fb)
	}
	orch := &geosync.Orchestrator{Geocoder: provider, Writer: st, Runs: st}

	// 夜间自动同步：默认开启，SYNC_NIGHTLY=false 时关闭（纯手动触发模式）
	if strings.ToLower(os.Getenv("SYNC_NIGHTLY")) != "false" {
		geosync.StartNightly(st, orch)
		l.Info("sync_nightly_enabled")
	}

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, api.BuildRoutes(st, rc, orch)))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := ":" + envOr("PORT", "8080")
	l.Info("http_listen", "addr", addr)
	if err := http.ListenAndServe(addr, middleware.Wrap(mux)); err != nil {
		l.Error("http_serve_error", "err", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
