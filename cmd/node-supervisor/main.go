//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/node-supervisor/internal/config"
	"github.com/edirooss/node-supervisor/internal/http/handler"
	mw "github.com/edirooss/node-supervisor/internal/http/middleware"
	"github.com/edirooss/node-supervisor/internal/supervisor"
	"github.com/edirooss/node-supervisor/pkg/fmtt"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	// Read env
	isDev := os.Getenv("ENV") == "dev"

	// Load config
	cfg, err := config.Load("node-supervisor.yaml")
	if err != nil {
		if isDev {
			fmtt.PrintErrChainDebug(err)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger(isDev)
	defer log.Sync()
	log = log.Named("main")

	// Node supervisor (registry + launcher + monitor + terminator)
	sup := supervisor.New(log, supervisor.Options{
		ROSDistro:          cfg.ROSDistro,
		Verbose:            cfg.Verbose,
		MonitorInterval:    cfg.MonitorInterval(),
		LaunchTimeout:      cfg.LaunchTimeout(),
		GraceTimeout:       cfg.GraceTimeout(),
		EventQueueCapacity: cfg.EventQueueCapacity,
	})

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer()
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Request ID early so it's available everywhere

		if isDev { // Local tooling needs CORS
			r.Use(cors.New(cors.Config{
				AllowOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
				AllowMethods:  []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:  []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders: []string{"X-Request-ID"},
				MaxAge:        12 * time.Hour,
			}))
		} else { // Behind a TLS-terminating proxy
			r.SetTrustedProxies([]string{"127.0.0.1"})
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https",
				},
			}))
		}

		r.Use(accessLog(log.Named("http")))

		r.Use(func(c *gin.Context) {
			// Launch bodies are tiny; anything past 1MB is hostile.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
			c.Next()
		})
	}

	// Register route handlers
	{
		r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

		nodeshndlr := handler.NewNodesHandler(log, sup)
		r.POST("/nodes/launch", mw.LimitConcurrentRequests(16), nodeshndlr.Launch)
		r.POST("/nodes/terminate", nodeshndlr.Terminate)
		r.GET("/nodes/:name/status", nodeshndlr.Status)
		r.GET("/nodes", nodeshndlr.List)
	}

	httpsrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Serve until SIGINT/SIGTERM, then drain the server and tear down
	// every remaining node.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr))
		errCh <- httpsrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpsrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
	if err := sup.Shutdown(shutdownCtx); err != nil {
		log.Warn("supervisor shutdown", zap.Error(err))
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("node-supervisor %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// helpers

func buildLogger(isDev bool) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	if isDev {
		logConfig.Level.SetLevel(zap.DebugLevel)
	} else {
		logConfig.Level.SetLevel(zap.InfoLevel)
	}
	return zap.Must(logConfig.Build())
}
