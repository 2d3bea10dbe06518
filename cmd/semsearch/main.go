package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/semsearch"
	"github.com/flarexio/semsearch/embedding/bedrock"
	"github.com/flarexio/semsearch/persistence/chromem"
	"github.com/flarexio/semsearch/persistence/sqlite"
	"github.com/flarexio/semsearch/vector"

	mcpE "github.com/flarexio/semsearch/mcp"
	httpT "github.com/flarexio/semsearch/transport/http"
	natsT "github.com/flarexio/semsearch/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "semsearch",
		Usage: "Semantic document search service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the semsearch service",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL",
				Value:   "wss://nats.flarex.io",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".flarex", "semsearch")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		return err
	}
	defer f.Close()

	var cfg semsearch.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return err
	}

	var db vector.DB
	switch cfg.Vector.Backend {
	case vector.BackendChromem:
		cfg.Vector.Path = filepath.Join(path, "vectors")

		db, err = chromem.NewChromemVectorDB(cfg.Vector)
		if err != nil {
			return err
		}

	default:
		cfg.Vector.Path = filepath.Join(path, "vectors.db")

		db, err = sqlite.NewSQLiteVectorDB(cfg.Vector)
		if err != nil {
			return err
		}
	}

	embedder, err := bedrock.NewClient(ctx, cfg.Embedding)
	if err != nil {
		return err
	}

	svc, err := semsearch.NewService(cfg, db, embedder)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc = semsearch.LoggingMiddleware(log)(svc)

	endpoints := semsearch.EndpointSet{
		AddDocuments:    semsearch.AddDocumentsEndpoint(svc),
		UpdateDocument:  semsearch.UpdateDocumentEndpoint(svc),
		GetDocument:     semsearch.GetDocumentEndpoint(svc),
		DeleteDocument:  semsearch.DeleteDocumentEndpoint(svc),
		SearchDocuments: semsearch.SearchDocumentsEndpoint(svc),
		Optimize:        semsearch.OptimizeEndpoint(svc),
	}

	natsURL := cmd.String("nats")
	natsCreds := filepath.Join(path, "user.creds")

	// Add NATS Transport
	{
		nc, err := nats.Connect(natsURL,
			nats.Name("Semsearch Server"),
			nats.UserCredentials(natsCreds),
		)

		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "semsearch",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup("semsearch")
		natsT.AddEndpoints(root, endpoints)
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints)

		endpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		endpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		endpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		endpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		endpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, endpoints)

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
