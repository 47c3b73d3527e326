// Command urlfetcher-server runs the gRPC URLFetcher service: a ticket
// minter, fetch queue, fetcher pool, result table, and the RequestFetch/
// ResolveFetch stream handlers, alongside a small debug HTTP surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"urlfetcher/internal/archivesink"
	"urlfetcher/internal/auditsink"
	"urlfetcher/internal/config"
	"urlfetcher/internal/debugsrv"
	"urlfetcher/internal/fetchpool"
	"urlfetcher/internal/fetchqueue"
	"urlfetcher/internal/hash/sha256"
	"urlfetcher/internal/httpfetch"
	"urlfetcher/internal/id/uuid"
	"urlfetcher/internal/logging"
	"urlfetcher/internal/notifysink"
	"urlfetcher/internal/resulttable"
	"urlfetcher/internal/rpc"
	"urlfetcher/internal/rpcapi"
	"urlfetcher/internal/sinks"
	"urlfetcher/internal/ticket"
	"urlfetcher/internal/urlfetcher"
)

func main() {
	flags := pflag.NewFlagSet("urlfetcher-server", pflag.ContinueOnError)
	cfgPath := flags.String("config", "", "path to config file")
	address := flags.String("address", "", "RPC listening address (overrides config)")
	threads := flags.Int("threads", 0, "worker count (overrides config, 0 = use config default)")
	verbose := flags.CountP("verbose", "v", "increase log verbosity (repeatable)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			fmt.Println(flags.FlagUsages())
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if flags.Changed("address") {
		cfg.Server.Address = *address
	}
	if flags.Changed("threads") && *threads != 0 {
		cfg.Fetcher.Threads = *threads
	}
	if *verbose > cfg.Logging.Verbosity {
		cfg.Logging.Verbosity = *verbose
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewAtVerbosity(cfg.Logging.Verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Address, err)
	}

	fetcher, err := httpfetch.New(cfg.Fetcher.UserAgent, logger.Named("httpfetch"))
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	minter := &ticket.Minter{}
	queue := fetchqueue.New()
	table := resulttable.New()

	opts, closeSinks, err := buildSinkOptions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()
	opts = append(opts, fetchpool.WithFetchTimeout(cfg.FetchTimeout()))

	pool := fetchpool.New(cfg.Fetcher.Threads, fetcher, queue, table, logger.Named("fetchpool"), opts...)
	poolCtx, poolCancel := context.WithCancel(context.Background())
	pool.Start(poolCtx)

	svc := rpc.New(minter, queue, table, uuid.New(), logger.Named("rpc"))
	grpcSrv := grpc.NewServer()
	rpcapi.RegisterServer(grpcSrv, svc)

	debugSrv := &debugHTTPServer{addr: debugAddress(cfg.Server.Address), handler: debugsrv.New(queue, logger.Named("debugsrv"))}
	go debugSrv.start(logger)

	grpcDone := make(chan error, 1)
	go func() {
		logger.Info("grpc server listening", zap.String("address", cfg.Server.Address))
		grpcDone <- grpcSrv.Serve(lis)
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdown(grpcSrv, table, poolCancel, pool, debugSrv, logger)

	if err := <-grpcDone; err != nil && ctx.Err() == nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// shutdown implements the ordered drain described by the service's
// shutdown discipline: stop accepting streams, release blocked
// resolvers, stop workers, then join them.
func shutdown(grpcSrv *grpc.Server, table *resulttable.Table, poolCancel context.CancelFunc, pool *fetchpool.Pool, debugSrv *debugHTTPServer, logger *zap.Logger) {
	graceful := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(graceful)
	}()

	poolCancel()
	table.Close()

	select {
	case <-graceful:
	case <-time.After(10 * time.Second):
		logger.Warn("graceful stop timed out, forcing stop")
		grpcSrv.Stop()
		<-graceful
	}

	pool.Join()
	debugSrv.stop(context.Background())
}

func debugAddress(rpcAddress string) string {
	host, _, err := net.SplitHostPort(rpcAddress)
	if err != nil {
		host = ""
	}
	return net.JoinHostPort(host, "9000")
}

func buildSinkOptions(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]fetchpool.Option, func(), error) {
	var opts []fetchpool.Option
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var audit urlfetcher.AuditSink = sinks.NoOpAuditSink{}
	if cfg.Audit.DSN != "" {
		pg, err := auditsink.NewPostgres(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, closeAll, fmt.Errorf("init audit sink: %w", err)
		}
		audit = pg
		closers = append(closers, func() { _ = pg.Close() })
	}
	opts = append(opts, fetchpool.WithAuditSink(audit))

	if cfg.Archive.Bucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("init gcs client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		archive, err := archivesink.New(client, cfg.Archive.Bucket)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("init archive sink: %w", err)
		}
		opts = append(opts, fetchpool.WithArchiveSink(archive, sha256.New()))
	}

	if cfg.Notify.TopicID != "" {
		client, err := pubsub.NewClient(ctx, cfg.Notify.ProjectID)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("init pubsub client: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		notifier := notifysink.New(client.Topic(cfg.Notify.TopicID))
		closers = append(closers, func() { _ = notifier.Close() })
		opts = append(opts, fetchpool.WithNotifier(notifier))
	}

	logger.Debug("sinks configured",
		zap.Bool("audit", cfg.Audit.DSN != ""),
		zap.Bool("archive", cfg.Archive.Bucket != ""),
		zap.Bool("notify", cfg.Notify.TopicID != ""))

	return opts, closeAll, nil
}

// debugHTTPServer wraps the small operational HTTP surface so main can
// start and stop it alongside the gRPC listener.
type debugHTTPServer struct {
	addr    string
	handler *debugsrv.Server
	srv     *http.Server
}

func (d *debugHTTPServer) start(logger *zap.Logger) {
	d.srv = &http.Server{Addr: d.addr, Handler: d.handler, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("debug server listening", zap.String("address", d.addr))
	if err := d.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("debug server stopped", zap.Error(err))
	}
}

func (d *debugHTTPServer) stop(ctx context.Context) {
	if d.srv != nil {
		_ = d.srv.Shutdown(ctx)
	}
}
