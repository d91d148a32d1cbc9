// Command im-server runs the instant-messaging server core: TCP listener,
// worker pool, connection registry, and MySQL-backed persistence.
// Grounded on original_source/server/src/main.cpp's signal handling and
// environment-variable database configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aeolun/im-server/pkg/server"
	"github.com/aeolun/im-server/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to an optional TOML config file")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on (empty disables)")
	debug := flag.Bool("debug", false, "enable debug logging to debug.log")
	flag.Parse()

	var portArg *int
	if flag.NArg() > 0 {
		p, err := strconv.Atoi(flag.Arg(0))
		if err != nil {
			log.Fatalf("invalid port argument %q: %v", flag.Arg(0), err)
		}
		portArg = &p
	}

	cfg, err := server.LoadConfig(*configPath, portArg)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	st, err := store.Open(store.Config{
		Host:     cfg.DB.Host,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		Port:     cfg.DB.Port,
	})
	if err != nil {
		log.Println("数据库初始化失败，服务器无法启动:", err)
		log.Println("提示: 请设置环境变量 DB_HOST, DB_USER, DB_PASSWORD, DB_NAME")
		os.Exit(1)
	}
	defer st.Close()

	if err := st.InitSchema(); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	srv := server.NewServer(cfg, st)

	if *debug {
		srv.EnableDebugLogging()
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
		// A second signal forces an immediate exit, matching main.cpp's
		// signalHandler behavior on repeated SIGINT/SIGTERM.
		second := make(chan os.Signal, 1)
		signal.Notify(second, os.Interrupt, syscall.SIGTERM)
		<-second
		fmt.Fprintln(os.Stderr, "收到第二次信号，强制退出")
		os.Exit(1)
	}()

	log.Printf("IM 服务器运行中，端口 %d，按 Ctrl+C 停止", cfg.Port)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
