package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bridgetable/internal/auth"
	"bridgetable/internal/bridge"
	"bridgetable/internal/catalog"
	"bridgetable/internal/console"
	"bridgetable/internal/device"
	"bridgetable/internal/engine"
	"bridgetable/internal/eventbus"
	"bridgetable/internal/history"
	"bridgetable/internal/monitor"
	"bridgetable/internal/observability/metrics"
	"bridgetable/internal/serial"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewInMemoryBus()
	blind, err := parseSeats(cfg.BlindSeats)
	if err != nil {
		logger.Fatalf("blind seats: %v", err)
	}
	eng, err := engine.New(bus, logger, engine.WithBlindSeats(blind...))
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	var repo history.HandRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		pgRepo := history.NewPostgresHandRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			logger.Fatalf("db schema error: %v", err)
		}
		repo = pgRepo
	} else {
		logger.Printf("no DATABASE_URL, hand history kept in memory only")
	}

	recorder, err := history.NewRecorder(bus, repo, logger)
	if err != nil {
		logger.Fatalf("recorder: %v", err)
	}
	broker, err := monitor.NewBroker(bus, logger)
	if err != nil {
		logger.Fatalf("monitor: %v", err)
	}

	interp, err := console.New(eng, logger)
	if err != nil {
		logger.Fatalf("console: %v", err)
	}

	startDevices(ctx, cfg, eng, bus, interp, logger)

	apiMux := http.NewServeMux()
	monitor.Routes(apiMux, broker, eng, recorder)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", auth.Middleware([]byte(cfg.JWTSecret), logger, apiMux))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	eng.NewHand(ctx)

	// The console owns the foreground; quit or a signal ends the
	// process.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := interp.Run(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Printf("console: %v", err)
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	_ = server.Shutdown(context.Background())
	logger.Printf("shutting down")
}

// startDevices probes and starts every configured controller. Failing
// to find the port for a configured device is the one fatal startup
// condition.
func startDevices(ctx context.Context, cfg config, eng *engine.Hand, bus eventbus.Bus, interp *console.Console, logger *log.Logger) {
	if len(cfg.Keyboards) == 0 && len(cfg.Antennas) == 0 {
		logger.Printf("no devices configured, console only")
		return
	}

	ports := cfg.Ports
	if len(ports) == 0 {
		enumerated, err := serial.ListPorts()
		if err != nil {
			logger.Fatalf("list serial ports: %v", err)
		}
		ports = enumerated
	}
	pool := serial.NewPool(ports)

	var cat *catalog.Catalog
	if len(cfg.Antennas) > 0 {
		loaded, err := catalog.Load(cfg.CatalogPath, logger)
		if err != nil {
			logger.Fatalf("catalog: %v", err)
		}
		cat = loaded
		logger.Printf("catalog: %d tags", cat.Len())
	}

	keyboardSeats, err := parseSeats(cfg.Keyboards)
	if err != nil {
		logger.Fatalf("keyboard seats: %v", err)
	}
	for _, seat := range keyboardSeats {
		kbd, err := device.NewKeyboard(seat, eng, bus, pool, serial.OpenPort, logger)
		if err != nil {
			logger.Fatalf("keyboard %v: %v", seat, err)
		}
		if err := kbd.Start(ctx); err != nil {
			logger.Fatalf("keyboard %v: %v", seat, err)
		}
		interp.AttachKeyboard(kbd)
	}

	antennaSeats, err := parseSeats(cfg.Antennas)
	if err != nil {
		logger.Fatalf("antenna seats: %v", err)
	}
	for _, seat := range antennaSeats {
		ant, err := device.NewAntenna(seat, eng, cat, pool, serial.OpenPort, logger)
		if err != nil {
			logger.Fatalf("antenna %v: %v", seat, err)
		}
		if err := ant.Start(ctx); err != nil {
			logger.Fatalf("antenna %v: %v", seat, err)
		}
		interp.AttachAntenna(ant)
	}
}

type config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	CatalogPath string

	Ports      []string
	BlindSeats []string
	Keyboards  []string
	Antennas   []string
}

// tableLayout is the optional YAML overlay describing one physical
// table: which seats are blind, which carry devices, and which ports
// to probe.
type tableLayout struct {
	Catalog    string   `yaml:"catalog"`
	Ports      []string `yaml:"ports"`
	BlindSeats []string `yaml:"blind_seats"`
	Keyboards  []string `yaml:"keyboards"`
	Antennas   []string `yaml:"antennas"`
}

func loadConfig() config {
	cfg := config{
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CatalogPath: getenvDefault("CARD_CATALOG", "cards.catalog"),
		Ports:       splitCSV(os.Getenv("SERIAL_PORTS")),
		BlindSeats:  splitCSV(os.Getenv("BLIND_SEATS")),
		Keyboards:   splitCSV(os.Getenv("KEYBOARD_SEATS")),
		Antennas:    splitCSV(os.Getenv("ANTENNA_SEATS")),
	}

	if path := os.Getenv("TABLE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("table config: %v", err)
		}
		var layout tableLayout
		if err := yaml.Unmarshal(data, &layout); err != nil {
			log.Fatalf("table config: %v", err)
		}
		if layout.Catalog != "" {
			cfg.CatalogPath = layout.Catalog
		}
		if len(layout.Ports) > 0 {
			cfg.Ports = layout.Ports
		}
		if len(layout.BlindSeats) > 0 {
			cfg.BlindSeats = layout.BlindSeats
		}
		if len(layout.Keyboards) > 0 {
			cfg.Keyboards = layout.Keyboards
		}
		if len(layout.Antennas) > 0 {
			cfg.Antennas = layout.Antennas
		}
	}
	return cfg
}

func parseSeats(names []string) ([]bridge.Direction, error) {
	seats := make([]bridge.Direction, 0, len(names))
	for _, name := range names {
		seat, err := bridge.ParseDirection(name)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
