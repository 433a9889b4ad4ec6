package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/you/groupme-archive/internal/avatar"
	"github.com/you/groupme-archive/internal/config"
	"github.com/you/groupme-archive/internal/core"
	"github.com/you/groupme-archive/internal/groupme"
	"github.com/you/groupme-archive/internal/report"
	"github.com/you/groupme-archive/internal/sink"
	"github.com/you/groupme-archive/internal/status"
	"github.com/you/groupme-archive/internal/timeutil"
	"github.com/you/groupme-archive/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		versionFlag    bool
		token          string
		tokenFile      string
		chatName       string
		directMessage  bool
		startArg       string
		endArg         string
		keyword        string
		before         int
		after          int
		outputDir      string
		dbPath         string
		httpAddr       string
		httpRateRPS    int
		httpRateBurst  int
		nonInteractive bool
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.StringVar(&token, "token", "", "GroupMe API access token")
	flag.StringVar(&tokenFile, "token-file", "", "Path to file containing the GroupMe access token")
	flag.StringVar(&chatName, "chat", "", "Restrict the export to one chat by name")
	flag.BoolVar(&directMessage, "dm", false, "Treat -chat as a direct-message thread instead of a group")
	flag.StringVar(&startArg, "start", "", "Window start: M/d/yyyy, or a count with unit (e.g. 30d, 6m, 2y)")
	flag.StringVar(&endArg, "end", "", "Window end, same grammar as -start")
	flag.StringVar(&keyword, "keyword", "", "Keep only messages containing this text")
	flag.IntVar(&before, "before", 0, "Messages of context to keep before each keyword match")
	flag.IntVar(&after, "after", 0, "Messages of context to keep after each keyword match")
	flag.StringVar(&outputDir, "o", "", "Output directory for the archive")
	flag.StringVar(&dbPath, "sqlite", "", "Also record fetched messages into this SQLite database")
	flag.StringVar(&httpAddr, "http-addr", "", "Progress/metrics HTTP address (e.g., :8125)")
	flag.IntVar(&httpRateRPS, "http-rate-rps", 0, "Maximum HTTP requests per second per client")
	flag.IntVar(&httpRateBurst, "http-rate-burst", 0, "Burst size for HTTP rate limiter")
	flag.BoolVar(&nonInteractive, "non-interactive", false, "Fail instead of prompting on output collisions")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"querier version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()
	if overrides["token"] {
		cfg.GroupMe.Token = strings.TrimSpace(token)
	}
	if overrides["token-file"] {
		cfg.GroupMe.TokenFile = strings.TrimSpace(tokenFile)
	}
	if overrides["o"] {
		cfg.Output.Dir = strings.TrimSpace(outputDir)
	}
	if overrides["sqlite"] {
		cfg.Sink.SQLitePath = strings.TrimSpace(dbPath)
	}
	if overrides["http-addr"] {
		cfg.HTTP.Addr = strings.TrimSpace(httpAddr)
	}
	if overrides["http-rate-rps"] {
		cfg.HTTP.RatePerIP = httpRateRPS
	}
	if overrides["http-rate-burst"] {
		cfg.HTTP.Burst = httpRateBurst
	}
	if overrides["non-interactive"] {
		cfg.Output.NonInteractive = nonInteractive
	}
	// A bare token may also be passed as the first positional argument.
	if cfg.GroupMe.Token == "" && flag.NArg() > 0 {
		cfg.GroupMe.Token = strings.TrimSpace(flag.Arg(0))
	}

	if cfg.GroupMe.LegacyTokenEnv != "" {
		log.Printf("config: using legacy env %s; prefer GMQ_TOKEN", cfg.GroupMe.LegacyTokenEnv)
	}
	log.Printf("config: %s", cfg.SummaryJSON())

	// Window arguments are validated before any network traffic.
	now := time.Now()
	start, err := timeutil.ParseCutoff(startArg, now)
	if err != nil {
		log.Fatalf("querier: bad -start: %v", err)
	}
	end, err := timeutil.ParseCutoff(endArg, now)
	if err != nil {
		log.Fatalf("querier: bad -end: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)

	var tokens groupme.TokenSource
	switch {
	case cfg.GroupMe.TokenFile != "":
		fts, err := groupme.NewFileTokenSource(cfg.GroupMe.TokenFile)
		if err != nil {
			log.Fatalf("querier: read token file: %v", err)
		}
		if err := fts.Watch(done); err != nil {
			log.Printf("querier: token watch unavailable: %v", err)
		}
		tokens = fts
	case cfg.GroupMe.Token != "":
		tokens = groupme.StaticToken(cfg.GroupMe.Token)
	default:
		log.Fatal("querier: no token; pass -token, -token-file, or set GMQ_TOKEN")
	}

	if cfg.HTTP.Addr != "" {
		statusSrv := status.New(status.Options{
			Addr:      cfg.HTTP.Addr,
			RatePerIP: cfg.HTTP.RatePerIP,
			Burst:     cfg.HTTP.Burst,
		})
		statusSrv.Start()
		log.Printf("status: listening on %s", cfg.HTTP.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = statusSrv.Shutdown(shutdownCtx)
		}()
	}

	client, err := groupme.New(ctx, tokens, groupme.Options{
		BaseURL:           cfg.GroupMe.BaseURL,
		RequestsPerSecond: cfg.GroupMe.RPS,
	})
	if err != nil {
		if errors.Is(err, groupme.ErrAuth) {
			log.Fatal("querier: token rejected; check your GroupMe access token")
		}
		log.Fatalf("querier: login: %v", err)
	}
	log.Printf("querier: logged in as %s", client.Name)

	query := groupme.MessageQuery{
		Start:   start,
		End:     end,
		Keyword: keyword,
		Before:  before,
		After:   after,
	}
	if chatName != "" {
		chat, err := client.GetChat(ctx, chatName, !directMessage)
		if err != nil {
			var nf *groupme.NotFoundError
			if errors.As(err, &nf) {
				log.Fatalf("querier: no chat named %q", nf.Name)
			}
			log.Fatalf("querier: look up chat: %v", err)
		}
		query.Chat = &chat
	}

	msgs, err := client.Messages(ctx, query)
	if err != nil {
		log.Fatalf("querier: fetch messages: %v", err)
	}
	_, fetched := groupme.Stats()
	log.Printf("querier: fetched %d messages, %d kept", fetched, len(msgs))

	if cfg.SinkEnabled() {
		if err := archiveMessages(cfg, msgs); err != nil {
			log.Fatalf("querier: sqlite archive: %v", err)
		}
	}

	if err := writeReport(ctx, cfg, client, msgs, heading(client.Name, start, end, keyword, now)); err != nil {
		if errors.Is(err, report.ErrNoMessages) {
			fmt.Println("No messages found")
			return
		}
		log.Fatalf("querier: write report: %v", err)
	}

	pages, rendered := report.Stats()
	log.Printf("querier: wrote %d pages (%d messages) under %s", pages, rendered, cfg.Output.Dir)
}

func archiveMessages(cfg config.Config, msgs []core.Message) error {
	db, err := sink.OpenSQLite(cfg.Sink.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	bw := sink.NewBufferedWriter(db, sink.BufferedOptions{
		BatchSize:     cfg.Batch(),
		FlushInterval: cfg.FlushInterval(),
	})
	for _, msg := range msgs {
		if err := bw.Write(msg); err != nil {
			_ = bw.Close()
			return err
		}
	}
	return bw.Close()
}

func writeReport(ctx context.Context, cfg config.Config, client *groupme.Client, msgs []core.Message, heading string) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}

	var confirm report.Confirmer
	if !cfg.Output.NonInteractive {
		confirm = report.PromptConfirmer(os.Stdin, os.Stdout)
	}

	asm := report.NewAssembler(report.DirFS{Root: cfg.Output.Dir}, confirm, client.Name)
	builder := report.NewBuilder(asm, avatar.NewCache(client), heading)
	for _, msg := range msgs {
		if err := builder.Add(ctx, msg); err != nil {
			return err
		}
	}
	return builder.Finish()
}

// heading builds the cover title from the effective query window.
func heading(user string, start, end time.Time, keyword string, now time.Time) string {
	from := "the beginning of time"
	if !start.IsZero() {
		from = timeutil.ShortDate(start)
	}
	to := timeutil.ShortDate(now)
	if !end.IsZero() {
		to = timeutil.ShortDate(end)
	}
	h := fmt.Sprintf("%s's GroupMe messages between %s and %s", user, from, to)
	if keyword != "" {
		h += fmt.Sprintf(" containing %q", keyword)
	}
	return h
}
