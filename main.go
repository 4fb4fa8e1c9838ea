package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/formloom/formloom/app"
	"github.com/formloom/formloom/blob"
	"github.com/formloom/formloom/captcha"
	"github.com/formloom/formloom/config"
	"github.com/formloom/formloom/httpx"
	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/payment"
	"github.com/formloom/formloom/routes"
	"github.com/formloom/formloom/session"
	"github.com/formloom/formloom/store"
	"github.com/formloom/formloom/store/mongostore"
	"github.com/formloom/formloom/store/sqlitestore"
	"github.com/formloom/formloom/submit"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("main.store.open:", err)
	}
	defer st.Close(ctx)

	uploader, err := openBlob(ctx, cfg)
	if err != nil {
		log.Fatal("main.blob.open:", err)
	}

	submitter := &submit.Service{Store: st}

	var gateway *payment.Gateway
	if cfg.PaymentBaseURL != "" {
		gateway = &payment.Gateway{
			BaseURL:   cfg.PaymentBaseURL,
			SecretKey: cfg.PaymentSecret,
		}
	}

	sessions := session.NewManager(session.ManagerConfig{
		Submitter: submitter,
		Gateway:   gateway,
		Captcha: captcha.Config{
			VerifyURL: cfg.CaptchaVerifyURL,
			Secret:    cfg.CaptchaSecret,
		},
	})

	bearerServer := httpx.NewBearerServer(st, cfg)

	app := app.App{
		Store:        st,
		Blob:         uploader,
		Submitter:    submitter,
		Sessions:     sessions,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "mongo":
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return sqlitestore.Open(cfg.SQLitePath)
	}
}

func openBlob(ctx context.Context, cfg config.Config) (blob.Uploader, error) {
	if cfg.S3Bucket == "" {
		log.Warn("no -s3-bucket configured, file uploads disabled")
		return blob.Disabled{}, nil
	}

	opts := []blob.S3Option{blob.WithRegion(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		opts = append(opts, blob.WithEndpoint(cfg.S3Endpoint))
	}
	if cfg.S3BaseURL != "" {
		opts = append(opts, blob.WithBaseURL(cfg.S3BaseURL))
	}
	return blob.NewS3(ctx, cfg.S3Bucket, opts...)
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
