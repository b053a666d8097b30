package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dunatron/odyssey-lift-off-part2/internal/catalog"
	"github.com/dunatron/odyssey-lift-off-part2/internal/eventbus"
	"github.com/dunatron/odyssey-lift-off-part2/internal/logging"
	"github.com/dunatron/odyssey-lift-off-part2/internal/otel"
	"github.com/dunatron/odyssey-lift-off-part2/internal/restrt"
	"github.com/dunatron/odyssey-lift-off-part2/internal/server"
	"github.com/dunatron/odyssey-lift-off-part2/internal/trackapi"
)

const rootUsage = `liftoff — GraphQL gateway for the learning-track catalog

USAGE:
  liftoff <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL gateway over the catalog REST API
  schema           Print the served GraphQL schema (SDL)
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -api.base-url <url>          Catalog REST API base URL (default: public catalog API)
  -api.timeout <duration>      Per-fetch timeout when the request has no deadline (default: 5s)
  -api.forward-header <name>   Forward HTTP header to catalog fetches. Repeatable
  -server.addr <addr>          HTTP listen address (default: :8080)
  -server.pretty               Pretty-print JSON responses
  -server.timeout <duration>   Per-request timeout, e.g. 10s (default: 10s)
  -server.cors-origin <origin> Allowed CORS origin. Repeatable; use * for any
  -server.max-body <bytes>     Max request body size (default: 1048576)
  -server.graphiql <bool>      Serve the GraphiQL page on GET (default: true)
  -otel.endpoint <addr>        OTLP collector endpoint
  -otel.service <name>         OpenTelemetry service name (default: liftoff)
`

const schemaUsage = `schema FLAGS:
  -out <file>   Write the SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("liftoff", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "schema":
		return cmdSchema(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "schema":
		fmt.Print(schemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdServe(args []string) error {
	baseURL := catalog.DefaultBaseURL
	apiTimeout := 5 * time.Second
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	graphiql := true
	otelEndpoint := ""
	otelService := "liftoff"
	var forwardHeaders stringListFlag
	var corsOrigins stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&baseURL, "api.base-url", baseURL, "Catalog REST API base URL")
	fs.DurationVar(&apiTimeout, "api.timeout", apiTimeout, "Per-fetch timeout")
	fs.Var(&forwardHeaders, "api.forward-header", "Forward HTTP header to catalog fetches")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Var(&corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Max request body size")
	fs.BoolVar(&graphiql, "server.graphiql", graphiql, "Serve the GraphiQL page on GET")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if baseURL == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-api.base-url is required")
	}

	sch, err := catalog.BuildSchema()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	registry := catalog.Resolvers(catalog.Models())
	if err := registry.Check(sch); err != nil {
		return fmt.Errorf("resolver check: %w", err)
	}

	eventbus.Use(eventbus.New())

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	detach := logging.Attach(logger)
	defer detach()

	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	apiOpts := []trackapi.Option{trackapi.WithBaseURL(baseURL)}
	if apiTimeout > 0 {
		apiOpts = append(apiOpts, trackapi.WithRequestTimeout(apiTimeout))
	}
	if len(forwardHeaders) > 0 {
		apiOpts = append(apiOpts, trackapi.WithForwardHeaders(forwardHeaders...))
	}
	sources := catalog.SourcesFactory(trackapi.NewFactory(apiOpts...))

	sopts := []server.Option{
		server.WithGraphiQL(graphiql),
		server.WithRequestContext(func(ctx context.Context, r *http.Request) context.Context {
			return restrt.NewRequestContext(ctx, sources(r))
		}),
	}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if maxBody > 0 {
		sopts = append(sopts, server.WithMaxBodyBytes(maxBody))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	h, err := server.New(restrt.NewRuntime(registry), sch, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdSchema(args []string) error {
	outFile := ""
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, schemaUsage)
		return err
	}

	// Validate before publishing
	if _, err := catalog.BuildSchema(); err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	sdl := catalog.SchemaSDL()
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
