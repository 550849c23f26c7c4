// Command procurectl is an operator CLI for the procurement API: sign in,
// then list, show or delete records of any resource family.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/LittleKatyusha/Sapi/apiclient"
	"github.com/LittleKatyusha/Sapi/internal/config"
)

const usage = `usage: procurectl <command> [flags] [args]

commands:
  login  -u USER [-p PASS]           sign in and store the token
  logout                             forget the stored token
  list   [flags] RESOURCE            list one page (e.g. pembelian/ovk)
  show   RESOURCE PID                show a record with its details
  delete RESOURCE ID                 delete a record
`

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, config.Load(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "procurectl:", err)
		os.Exit(1)
	}
}

// env is what every command works with.
type env struct {
	cfg    *config.Config
	client *apiclient.Client
	out    io.Writer
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return nil
	}
	client, closeCache, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	e := &env{cfg: cfg, client: client, out: out}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return e.login(ctx, rest)
	case "logout":
		return e.logout(ctx)
	case "list":
		return e.list(ctx, rest)
	case "show":
		return e.show(ctx, rest)
	case "delete":
		return e.delete(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

// newClient builds the API client. A Redis cache is used when
// CACHE_REDIS_ADDR is set.
func newClient(cfg *config.Config) (*apiclient.Client, func(), error) {
	var cache apiclient.Cache = apiclient.NewMemoryCache(cfg.Client.CacheTTL)
	closeFunc := func() {}
	if cfg.Client.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Client.RedisAddr})
		cache = apiclient.NewRedisCache(rdb, "procurectl:", cfg.Client.CacheTTL)
		closeFunc = func() {
			if err := rdb.Close(); err != nil {
				log.Printf("redis close: %v", err)
			}
		}
	}
	opts := []apiclient.Option{
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		apiclient.WithTokenSource(apiclient.FileTokenStore{Path: cfg.Client.TokenFile}),
		apiclient.WithCache(cache),
	}
	if cfg.App.Dev {
		opts = append(opts, apiclient.WithLogger(log.New(os.Stderr, "api ", log.LstdFlags)))
	}
	c, err := apiclient.New(cfg.Client.BaseURL, opts...)
	if err != nil {
		closeFunc()
		return nil, nil, err
	}
	return c, closeFunc, nil
}
