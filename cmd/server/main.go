package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"chessbridge-backend/lib/catalogstore"
	"chessbridge-backend/lib/configutil"
	"chessbridge-backend/lib/scrapers/chesserp"
	"chessbridge-backend/lib/serviceutil"
	"chessbridge-backend/lib/sqliteutil"
	"chessbridge-backend/lib/telemetry"
	"chessbridge-backend/services/catalog"
)

type Config struct {
	Port    int                    `json:"port"`
	Chess   chesserp.ClientOptions `json:"chess"`
	Catalog catalog.Config         `json:"catalog"`
}

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(os.Getenv("DEBUG") != "")

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8240
	}

	t, err := telemetry.SetupFromEnv(ctx, "chessbridge")
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	} else {
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	client, err := chesserp.NewClient(config.Chess)
	if err != nil {
		serviceutil.Fatal("failed to initialize chesserp client", err)
	}

	db, err := sqliteutil.OpenDB(catalogstore.Schema, ":memory:")
	if err != nil {
		serviceutil.Fatal("failed to open catalog store", err)
	}
	defer db.Close()

	service := catalog.NewService(client, catalogstore.NewStore(db), config.Catalog)

	mux := http.NewServeMux()
	service.Register(mux)
	go serviceutil.StartHttpServer(config.Port, mux)

	<-ctx.Done()
}
