package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/buger/jsonparser"
	env "github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/handler"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/logging"
	"github.com/josh-kwaku/cartpanda-whatsapp/internal/middleware"
)

type mockConfig struct {
	Port         int    `env:"MOCK_GATEWAY_PORT" envDefault:"8081"`
	Route        string `env:"MOCK_GATEWAY_ROUTE" envDefault:"/send-text"`
	AuthHeader   string `env:"MOCK_GATEWAY_AUTH_HEADER" envDefault:"Client-Token"`
	Token        string `env:"MOCK_GATEWAY_TOKEN"`
	PhoneField   string `env:"MOCK_GATEWAY_PHONE_FIELD" envDefault:"phone"`
	MessageField string `env:"MOCK_GATEWAY_MESSAGE_FIELD" envDefault:"message"`
	AppEnv       string `env:"APP_ENV"`
}

// The mock answers 404 on every route except the configured one, so the
// probing client can be exercised end to end against it.
func main() {
	cfg, err := env.ParseAs[mockConfig]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.OptionsFor("mock-gateway", "dev", "info", cfg.AppEnv))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handler.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("POST "+cfg.Route, sendText(cfg))

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("mock gateway started", "addr", addr, "route", cfg.Route, "auth_header", cfg.AuthHeader)
	if err := http.ListenAndServe(addr, middleware.RequestID(middleware.AccessLog(mux))); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func sendText(cfg mockConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential := strings.TrimSpace(r.Header.Get(cfg.AuthHeader))
		if credential == "" || (cfg.Token != "" && credential != cfg.Token) {
			handler.RespondJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			handler.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
			return
		}

		phone, err := jsonparser.GetString(body, cfg.PhoneField)
		if err != nil || phone == "" {
			handler.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": cfg.PhoneField + " is required"})
			return
		}
		if _, err := jsonparser.GetString(body, cfg.MessageField); err != nil {
			handler.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": cfg.MessageField + " is required"})
			return
		}

		id := uuid.NewString()
		slog.Info("message accepted", "phone", logging.MaskPhone(phone), "message_id", id)
		handler.RespondJSON(w, http.StatusOK, map[string]string{
			"zaapId":    id,
			"messageId": id,
			"id":        id,
		})
	}
}
