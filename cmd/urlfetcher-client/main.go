// Command urlfetcher-client is a demonstration client for manual
// smoke-testing: it submits a batch of URLs to urlfetcher-server over
// RequestFetch, then resolves every returned ticket over ResolveFetch
// and prints the results.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"urlfetcher/internal/logging"
	"urlfetcher/internal/rpcapi"
)

var defaultURLs = []string{
	"https://example.com/",
	"https://httpstat.us/200",
	"https://httpstat.us/404",
}

func main() {
	flags := pflag.NewFlagSet("urlfetcher-client", pflag.ContinueOnError)
	address := flags.StringP("address", "a", "localhost:8000", "gRPC serving address to connect to")
	verbose := flags.CountP("verbose", "v", "increase log verbosity (repeatable)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			fmt.Println(flags.FlagUsages())
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewAtVerbosity(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	urls := defaultURLs
	if rest := flags.Args(); len(rest) > 0 {
		urls = rest
	}

	if err := run(*address, urls, logger); err != nil {
		logger.Fatal("client exited with error", zap.Error(err))
	}
}

func run(address string, urls []string, logger *zap.Logger) error {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	defer func() { _ = conn.Close() }()

	client := rpcapi.NewClient(conn)
	ctx := context.Background()

	tickets, err := requestFetches(ctx, client, urls, logger)
	if err != nil {
		return fmt.Errorf("request fetches: %w", err)
	}

	responses, err := resolveFetches(ctx, client, tickets, logger)
	if err != nil {
		return fmt.Errorf("resolve fetches: %w", err)
	}

	for i, resp := range responses {
		fmt.Printf("%s -> error_code=%d header_bytes=%d body_bytes=%d\n",
			urls[i], resp.CurlError, len(resp.Header), len(resp.Body))
	}
	return nil
}

func requestFetches(ctx context.Context, client rpcapi.Client, urls []string, logger *zap.Logger) ([]uint64, error) {
	logger.Info("requesting urls", zap.Int("count", len(urls)))

	stream, err := client.RequestFetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		logger.Debug("writing url to stream", zap.String("url", u))
		if err := stream.Send(&rpcapi.Request{URL: u}); err != nil {
			return nil, err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var tickets []uint64
	for {
		pending, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		logger.Info("received ticket", zap.Uint64("ticket", pending.Key))
		tickets = append(tickets, pending.Key)
	}
	return tickets, nil
}

func resolveFetches(ctx context.Context, client rpcapi.Client, tickets []uint64, logger *zap.Logger) ([]*rpcapi.Response, error) {
	logger.Info("resolving tickets", zap.Int("count", len(tickets)))

	stream, err := client.ResolveFetch(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		logger.Debug("writing ticket to stream", zap.Uint64("ticket", t))
		if err := stream.Send(&rpcapi.PendingFetch{Key: t}); err != nil {
			return nil, err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var responses []*rpcapi.Response
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		logger.Info("received response",
			zap.Int("header_bytes", len(resp.Header)),
			zap.Int("body_bytes", len(resp.Body)),
			zap.Int32("error_code", resp.CurlError))
		responses = append(responses, resp)
	}
	return responses, nil
}
