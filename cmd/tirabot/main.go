// Tirabot — group-ordering assistant for a Telegram conversation.
// Participants post order lines, the bot classifies them into merchant
// categories, and the coordinator pulls an aggregated summary.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shahakz11/SomeoneSomethingTira/pkg/api"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/bus"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/channels/cli"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/channels/telegram"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/classifier"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/config"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/logger"
	"github.com/shahakz11/SomeoneSomethingTira/pkg/session"
)

func main() {
	cliMode := flag.Bool("cli", false, "run against the local console instead of Telegram")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.ErrorCF("main", "Configuration error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	logger.Init(cfg.Debug)
	defer logger.Sync()

	cls, err := buildClassifier(cfg)
	if err != nil {
		logger.ErrorCF("main", "Classifier setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	b := bus.NewMessageBus()
	ctrl := session.NewController(session.Options{
		Bus:           b,
		Classifier:    cls,
		ChatID:        cfg.ChatID,
		CoordinatorID: cfg.CoordinatorID,
		ChunkSize:     cfg.ChunkSize,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *cliMode {
		runCLI(ctx, cancel, cfg, b, ctrl)
		return
	}
	runTelegram(ctx, cfg, b, ctrl)
}

// buildClassifier wires the configured strategy: keyword rules (built-in or
// file override) and, when credentialed, a delegated provider on top.
func buildClassifier(cfg *config.Config) (classifier.Classifier, error) {
	var rules []classifier.Rule
	if cfg.RulesFile != "" {
		loaded, err := classifier.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
		logger.InfoCF("config", "Keyword rules loaded from file", map[string]interface{}{
			"path":  cfg.RulesFile,
			"rules": len(loaded),
		})
	}
	keyword := classifier.NewKeywordClassifier(rules)

	provider, err := cfg.ResolveProvider()
	if err != nil {
		return nil, err
	}
	logger.InfoCF("main", "Classifier strategy selected", map[string]interface{}{
		"provider": provider,
	})
	switch provider {
	case config.ProviderOpenAI:
		return classifier.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.ClassifierModel, keyword), nil
	case config.ProviderAnthropic:
		return classifier.NewAnthropicClassifier(cfg.AnthropicAPIKey, cfg.ClassifierModel, keyword), nil
	default:
		return keyword, nil
	}
}

func runCLI(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, b *bus.MessageBus, ctrl *session.Controller) {
	b.RegisterHandler(cli.ChannelName, ctrl.HandleMessage)
	ch := cli.NewChannel(b)

	go b.Dispatch(ctx)
	go ch.RunOutbound(ctx)

	srv := api.NewServer(cfg.Host, cfg.Port, ctrl, nil)
	if err := srv.Start(ctx); err != nil {
		logger.ErrorCF("main", "HTTP server failed to start", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	if err := ch.Run(ctx); err != nil {
		logger.ErrorCF("cli", "Console channel error", map[string]interface{}{"error": err.Error()})
	}
	cancel()
	shutdown(srv, b)
}

func runTelegram(ctx context.Context, cfg *config.Config, b *bus.MessageBus, ctrl *session.Controller) {
	if err := cfg.Validate(); err != nil {
		logger.ErrorCF("main", "Configuration error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	tg, err := telegram.NewChannel(cfg.TelegramToken, b, cfg.ChunkSize)
	if err != nil {
		logger.ErrorCF("main", "Telegram bot setup failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	b.RegisterHandler(telegram.ChannelName, ctrl.HandleMessage)

	go b.Dispatch(ctx)
	go tg.RunOutbound(ctx)

	var webhook http.HandlerFunc
	if cfg.WebhookURL != "" {
		url := strings.TrimRight(cfg.WebhookURL, "/") + "/webhook"
		if err := tg.SetWebhook(ctx, url); err != nil {
			logger.ErrorCF("main", "SetWebhook failed", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			os.Exit(1)
		}
		webhook = tg.WebhookHandler()
		logger.InfoCF("main", "Webhook registered", map[string]interface{}{"url": url})
	} else {
		go func() {
			if err := tg.RunLongPolling(ctx); err != nil {
				logger.ErrorCF("telegram", "Long polling stopped", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	srv := api.NewServer(cfg.Host, cfg.Port, ctrl, webhook)
	if err := srv.Start(ctx); err != nil {
		logger.ErrorCF("main", "HTTP server failed to start", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	<-ctx.Done()
	shutdown(srv, b)
}

func shutdown(srv *api.Server, b *bus.MessageBus) {
	logger.InfoC("main", "Shutting down")
	if err := srv.Stop(); err != nil {
		logger.WarnCF("main", "HTTP shutdown error", map[string]interface{}{"error": err.Error()})
	}
	b.Close()
}
