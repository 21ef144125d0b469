package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/toll-scenario/internal/auth"
	"github.com/ukydev/toll-scenario/internal/controller"
	"github.com/ukydev/toll-scenario/internal/db"
	"github.com/ukydev/toll-scenario/internal/display"
	"github.com/ukydev/toll-scenario/internal/handlers"
	"github.com/ukydev/toll-scenario/internal/middleware"
	"github.com/ukydev/toll-scenario/internal/models"
	"github.com/ukydev/toll-scenario/internal/session"
)

const (
	rateLimitRequests = 600
	rateLimitWindow   = 60
	shutdownTimeout   = 10 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the operator API and the live display websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != 0 {
				a.cfg.Port = port
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	hub := display.NewHub()
	defer hub.Close()

	var mqttPub *display.MQTTPublisher
	if cfg.MQTTBroker != "" {
		pub, client, err := display.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, display events go to websockets only")
		} else {
			mqttPub = pub
			defer client.Disconnect(250)
			log.WithField("broker", cfg.MQTTBroker).Info("Connected to MQTT broker")
		}
	}
	surfaces := func(sessionID string) display.Surface {
		out := display.Fanout{hub.Surface(sessionID)}
		if mqttPub != nil {
			out = append(out, mqttPub.Surface(sessionID))
		}
		return out
	}

	var (
		opts      []controller.Option
		runs      db.RunCollection
		operators = auth.Stores{auth.StaticOperators{
			cfg.OperatorUsername: {
				Username:     cfg.OperatorUsername,
				PasswordHash: cfg.OperatorPasswordHash,
				Role:         models.RoleOperator,
			},
		}}
	)
	if cfg.MongoURI != "" {
		client, err := db.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

		database := client.Database(cfg.MongoDB)
		archive := db.NewMongoCollection(database)
		if err := archive.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create archive indexes")
		}
		opts = append(opts, controller.WithArchive(archive))
		runs = archive
		operators = append(operators, &db.MongoOperatorCollection{Collection: database.Collection(db.OperatorsCollection)})
	}

	var authService *auth.Service
	if cfg.AuthEnabled() {
		authService = auth.NewService(cfg.JWTSecret, cfg.JWTExpiry, operators)
	} else {
		log.Warn("OPERATOR_PASSWORD_HASH not set, operator API is unauthenticated")
	}

	registry := session.NewRegistry(a.backend(), surfaces, opts...)
	authMW := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	mux := http.NewServeMux()
	handlers.Routes(mux, authMW, handlers.NewAuthHandler(authService), handlers.NewSessionHandler(registry, runs), hub)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.WithLogging(rateLimiter.RateLimit(rateLimitRequests, rateLimitWindow)(authMW.Authenticate(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    srv.Addr,
			"backend": cfg.BackendURL,
			"auth":    cfg.AuthEnabled(),
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
