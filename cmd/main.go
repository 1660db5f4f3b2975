package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatwire/internal/app/registry"
	"chatwire/internal/app/worker"
	"chatwire/internal/config"
	"chatwire/internal/core/contracts"
	"chatwire/internal/core/domain"
	"chatwire/internal/core/services"
	"chatwire/internal/platform/logger"
	"chatwire/internal/platform/telemetry"
	"chatwire/internal/plugins/rest"
	"chatwire/internal/plugins/stompws"
	"chatwire/pkg/logging"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "session bearer token")
	convID := flag.String("conversation", "", "conversation id to open")
	flag.Parse()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	ctx = logging.WithContext(ctx, log)
	log.Info("starting chat client")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	endpoint, err := stompws.Endpoint(cfg.Server.BaseURL, cfg.Server.WSPath)
	if err != nil {
		log.Error("ws endpoint derivation failed", "base_url", cfg.Server.BaseURL, "err", err)
		return
	}

	// Core services
	tokenSvc := services.NewTokenService(log, cfg.SecretToken)
	sessionSvc := services.NewSessionService(log, tokenSvc)

	factory := func(endpoint, token string, hooks contracts.TransportHooks) contracts.Transport {
		return stompws.New(log, stompws.Config{
			Endpoint:       endpoint,
			Token:          token,
			ReconnectDelay: cfg.Realtime.ReconnectDelay,
			HeartbeatSend:  cfg.Realtime.HeartbeatSend,
			HeartbeatRecv:  cfg.Realtime.HeartbeatRecv,
		}, hooks)
	}
	lifecycle := services.NewLifecycleManager(log, sessionSvc, factory, endpoint)
	hub := registry.NewRegistry(log, lifecycle)

	api := rest.NewClient(log, cfg.Server.BaseURL, *cfg.REST, sessionSvc.Token)
	cache := services.NewConversationCache()
	sendSvc := services.NewSendService(log, lifecycle, hub, api)

	go lifecycle.Run(ctx)

	if err := sessionSvc.SetToken(*token); err != nil {
		log.Error("session token rejected", "err", err)
		return
	}
	if *convID == "" {
		log.Error("missing -conversation flag")
		return
	}

	if convs, err := api.Conversations(ctx); err != nil {
		log.Warn("conversation list fetch failed", "err", err)
	} else {
		cache.Replace(convs)
	}

	var view *services.DispatchService
	view, err = services.NewDispatchService(log, api, cache, *convID, sessionSvc.UserID(),
		services.DispatchConfig{
			TypingTTL:   cfg.Realtime.TypingTTL,
			ScrollDelay: cfg.Realtime.ScrollDelay,
		},
		services.DispatchHooks{
			OnUpdate: func() {
				msgs := view.Messages()
				if len(msgs) == 0 {
					return
				}
				last := msgs[len(msgs)-1]
				fmt.Printf("[%s] %s: %s (%s)\n",
					last.SentAt.Format(time.Kitchen), last.SenderName, last.Content, last.ReceiptStatus)
			},
			OnTyping: func(active []string) {
				if len(active) > 0 {
					fmt.Printf("… %s typing\n", strings.Join(active, ", "))
				}
			},
		})
	if err != nil {
		log.Error("dispatch setup failed", "err", err)
		return
	}
	defer view.Close()

	sub := worker.NewConversationWorker(log, lifecycle, hub, view, *convID, cfg.Realtime.FrameBufferSize)
	if err := sub.Attach(ctx); err != nil {
		log.Error("conversation attach failed", "err", err)
		return
	}
	defer sub.Detach()

	if err := view.LoadHistory(ctx); err != nil {
		log.Warn("history load failed, retry by reopening", "err", err)
	}
	_ = view.MarkRead(ctx)
	for _, msg := range view.Messages() {
		fmt.Printf("[%s] %s: %s\n", msg.SentAt.Format(time.Kitchen), msg.SenderName, msg.Content)
	}

	go readLoop(ctx, sendSvc, view, *convID)

	<-ctx.Done()
	log.Info("shutting down")
}

// readLoop turns stdin lines into outgoing messages.
func readLoop(ctx context.Context, send *services.SendService, view *services.DispatchService, convID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		send.SendTyping(convID)
		msg, err := send.Send(ctx, domain.SendPayload{
			ConversationID: convID,
			Content:        line,
			MessageType:    domain.MessageText,
		})
		if err != nil {
			// Draft restored for retry.
			fmt.Printf("send failed, draft kept: %q\n", line)
			continue
		}
		if msg != nil {
			// Fallback path: the caller inserts the created message.
			view.State().Upsert(*msg)
		}
	}
}
