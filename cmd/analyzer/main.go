package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"StockPilot/pkg/analyzer"
	"StockPilot/pkg/collector"
	"StockPilot/pkg/config"
	"StockPilot/pkg/database"
	"StockPilot/pkg/llm"
	"StockPilot/pkg/market"
	"StockPilot/pkg/messaging"
	"StockPilot/pkg/model"
	"StockPilot/pkg/notify"
	"StockPilot/pkg/pipeline"
	"StockPilot/pkg/scheduler"
	"StockPilot/pkg/search"
	"StockPilot/pkg/trend"
)

type cliArgs struct {
	debug          bool
	dryRun         bool
	stocks         string
	noNotify       bool
	workers        int
	schedule       bool
	marketReview   bool
	noMarketReview bool
}

func parseArgs() cliArgs {
	var args cliArgs
	flag.BoolVar(&args.debug, "debug", false, "输出调试日志")
	flag.BoolVar(&args.dryRun, "dry-run", false, "只抓取数据，不做分析")
	flag.StringVar(&args.stocks, "stocks", "", "覆盖自选列表，逗号分隔")
	flag.BoolVar(&args.noNotify, "no-notify", false, "禁用通知派发")
	flag.IntVar(&args.workers, "workers", 0, "并发worker数量，0表示取配置")
	flag.BoolVar(&args.schedule, "schedule", false, "以定时模式常驻运行")
	flag.BoolVar(&args.marketReview, "market-review", false, "强制执行大盘复盘")
	flag.BoolVar(&args.noMarketReview, "no-market-review", false, "跳过大盘复盘")
	flag.Parse()
	return args
}

func setupLogging(debug bool, logDir string) {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			name := filepath.Join(logDir, "analyzer_"+time.Now().Format("20060102")+".log")
			if f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				log.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}
	if debug {
		log.Println("调试日志已开启")
	}
}

func main() {
	args := parseArgs()

	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Printf("加载配置失败: %v", err)
		os.Exit(0)
	}
	setupLogging(args.debug, cfg.LogDir)

	symbols := cfg.Symbols
	if args.stocks != "" {
		symbols = nil
		for _, s := range strings.Split(args.stocks, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}
	if len(symbols) == 0 {
		log.Println("自选列表为空，无事可做")
		os.Exit(0)
	}

	workers := cfg.Workers
	if args.workers > 0 {
		workers = args.workers
	}

	store, err := database.NewStore(cfg)
	if err != nil {
		log.Printf("连接数据库失败: %v", err)
		os.Exit(0)
	}
	defer store.Close()

	classify := model.ClassifyRule(cfg.Classifier)

	llmClient := llm.NewClient(cfg.Model.APIURL, cfg.Model.APIKey, cfg.Model.Name, *cfg.Model.Temperature)
	insight := analyzer.NewInsightClient(llmClient)
	notifier := notify.NewService(cfg.Notification.WebhookURL, cfg.Notification.ReportDir)
	searcher := search.NewService(cfg.Search.BochaKeys, cfg.Search.TavilyKeys)
	cryptoClient := collector.NewCryptoClient()

	facade := pipeline.NewDataFacade(
		store,
		collector.NewEastMoneyClient(),
		cryptoClient,
		classify,
		cfg.LookbackDays,
	)

	p := pipeline.New(facade, store, insight, notifier, classify, workers, cfg.Notification.Mode).
		WithNames(cfg.NameMap).
		WithSentiment(collector.NewSentimentClient(cryptoClient)).
		WithTrend(trend.NewAnalyzer()).
		WithSearch(searcher).
		WithReports(store)

	if ak := collector.NewAKShareAdapter(cfg.DataSources.AKShare.BaseURL); ak.Available() {
		p.WithQuotes(ak)
	} else {
		log.Println("未配置AKShare数据源，实时快照与筹码分布不可用")
	}

	if cfg.NATS.Enabled {
		pub, err := messaging.NewPublisher(cfg.NATS.URL, cfg.NATS.ClusterID, cfg.NATS.ClientID, cfg.NATS.Subject)
		if err != nil {
			log.Printf("NATS不可用，结果发布已禁用: %v", err)
		} else {
			defer pub.Close()
			p.WithSink(pub)
		}
	}

	opts := pipeline.Options{DryRun: args.dryRun, Notify: !args.noNotify}

	runOnce := func() {
		ctx := context.Background()
		p.Run(ctx, symbols, opts)

		wantReview := cfg.MarketReview.Enabled || args.marketReview
		if wantReview && !args.noMarketReview && !args.dryRun {
			runMarketReview(ctx, searcher, llmClient, notifier, !args.noNotify)
		}
	}

	if args.schedule || cfg.Schedule.Enabled {
		sched := scheduler.NewScheduler()
		if err := sched.AddJob(cfg.Schedule.Spec, "每日分析", runOnce); err != nil {
			log.Printf("%v", err)
			os.Exit(0)
		}
		sched.Start()
		log.Printf("定时模式已就绪: %s", cfg.Schedule.Spec)
		runOnce()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		sched.Stop()
	} else {
		runOnce()
	}

	os.Exit(0)
}

// runMarketReview 大盘复盘：失败只记日志，不影响退出码
func runMarketReview(ctx context.Context, searcher *search.Service, llmClient *llm.Client, notifier *notify.Service, sendNotify bool) {
	reviewer := market.NewAnalyzer(searcher, llmClient)
	report, err := reviewer.RunDailyReview(ctx)
	if err != nil {
		log.Printf("大盘复盘失败: %v", err)
		return
	}
	if report == "" {
		return
	}
	if path, err := notifier.SaveReportToFile("# 📈 大盘复盘\n\n" + report); err == nil {
		log.Printf("大盘复盘已归档: %s", path)
	}
	if sendNotify && notifier.IsAvailable() {
		if err := notifier.Send("🎯 大盘复盘\n\n" + report); err != nil {
			log.Printf("大盘复盘通知失败: %v", err)
		}
	}
}
