package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"krakenbot/analysis"
	"krakenbot/config"
	"krakenbot/gateway"
	"krakenbot/internal/pending"
	"krakenbot/kraken"
	"krakenbot/logger"
	"krakenbot/models"
	"krakenbot/orchestrator"
	"krakenbot/strategy"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Krakenbot.Name,
		"version": cfg.Krakenbot.Version,
		"env":     config.AppEnvironment(),
	}).Info("starting krakenbot")

	if os.Getenv("AWS_REGION") != "" {
		logger.InitCloudWatch("", cfg.Logging.DashboardName)
	}

	key, secret := config.Credentials()
	if key == "" || secret == "" {
		if config.IsProductionLike(config.AppEnvironment()) {
			log.WithComponent("main").Error("KRAKEN_API_KEY and KRAKEN_PRIVATE_KEY must be set in production")
			os.Exit(1)
		}
		log.WithComponent("main").Warn("kraken credentials not set; private calls will fail and ticker data is mocked")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := kraken.NewClient(cfg, key, secret)
	gw := gateway.New(cfg, client)
	screener := analysis.NewScreener(cfg, gw)
	generator := strategy.NewGenerator(cfg, gw)
	trader := strategy.NewTrader(gw, strategy.NewFixedNotional(cfg.Strategy.NotionalUSD))
	store := pending.NewStore()
	orch := orchestrator.New(cfg, orchestrator.KeywordResolver{}, gw, screener, generator, trader, store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("received shutdown signal")
		cancel()
	}()

	runConsole(ctx, orch)
	log.Info("krakenbot stopped")
}

// runConsole is a minimal line-oriented session standing in for the external
// chat transport: one line in, one rendered ActionResult out.
func runConsole(ctx context.Context, orch *orchestrator.Orchestrator) {
	const userID = "console"
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("krakenbot ready. Type 'help' for capabilities, 'exit' to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}
		render(orch.HandleMessage(ctx, userID, line))
	}
}

// render prints an ActionResult the way an external renderer would consume
// it.
func render(result models.ActionResult) {
	if result.Status == models.StatusError {
		fmt.Printf("error (%s): %v\n", result.Intent, result.Data)
		return
	}
	if msg, ok := result.Data.(string); ok {
		fmt.Printf("%s\n", msg)
		return
	}
	pretty, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", result.Data)
		return
	}
	fmt.Printf("%s\n", pretty)
}
