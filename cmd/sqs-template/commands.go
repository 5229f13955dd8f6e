package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"aws-sqs-messaging-template/configs"
	"aws-sqs-messaging-template/internal/app/listener"
	"aws-sqs-messaging-template/internal/pkg/http"
	"aws-sqs-messaging-template/internal/pkg/logger"
	"aws-sqs-messaging-template/internal/pkg/messaging"
	"aws-sqs-messaging-template/internal/pkg/messaging/message"
	"aws-sqs-messaging-template/internal/pkg/observability/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func setup(c *cli.Context) (*components, error) {
	cfg, err := configs.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	metrics.Setup()
	return wire(c.Context, cfg)
}

// templateFor returns the selected template and the destination to use with it.
func templateFor(c *cli.Context, comp *components) (*messaging.Template, string, error) {
	tpl, err := comp.Registry.Get(c.String("template"))
	if err != nil {
		return nil, "", err
	}
	dest := c.String("destination")
	if dest == "" {
		dest = tpl.DefaultDestination()
	}
	return tpl, dest, nil
}

func send(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("send expects exactly one payload argument")
	}
	comp, err := setup(c)
	if err != nil {
		return err
	}
	tpl, dest, err := templateFor(c, comp)
	if err != nil {
		return err
	}

	headers, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return err
	}
	if c.IsSet("delay") {
		headers[message.HeaderDelay] = c.Int("delay")
	}
	if v := c.String("group-id"); v != "" {
		headers[message.HeaderGroupID] = v
	}
	if v := c.String("deduplication-id"); v != "" {
		headers[message.HeaderDeduplicationID] = v
	}

	var payload any = c.Args().First()
	if c.Bool("json") {
		var decoded any
		if err := json.UnmarshalFromString(c.Args().First(), &decoded); err != nil {
			return fmt.Errorf("invalid JSON payload: %w", err)
		}
		payload = decoded
	}

	id, err := tpl.ConvertAndSendTo(c.Context, dest, payload, headers)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, id)
	return nil
}

func parseHeaders(pairs []string) (message.Headers, error) {
	headers := message.Headers{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[key] = value
	}
	return headers, nil
}

type printedMessage struct {
	Payload string          `json:"payload"`
	Headers message.Headers `json:"headers"`
}

func receive(c *cli.Context) error {
	comp, err := setup(c)
	if err != nil {
		return err
	}
	tpl, dest, err := templateFor(c, comp)
	if err != nil {
		return err
	}

	for i := 0; i < c.Int("count"); i++ {
		msg, err := tpl.ReceiveFrom(c.Context, dest)
		if err != nil {
			return err
		}
		if msg == nil {
			logger.Info("No message available on %s", dest)
			return nil
		}
		line, err := json.MarshalToString(printedMessage{Payload: msg.Payload, Headers: msg.Headers})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, line)
	}
	return nil
}

func listen(c *cli.Context) error {
	comp, err := setup(c)
	if err != nil {
		return err
	}
	cfg := comp.Config
	_, dest, err := templateFor(c, comp)
	if err != nil {
		return err
	}
	policy, err := listener.ParseDeletionPolicy(cfg.ListenerDeletionPolicy)
	if err != nil {
		return err
	}

	l := &listener.Listener{
		Queue:       comp.Queue,
		Resolver:    comp.Resolver,
		Cache:       comp.Cache,
		Destination: dest,
		Handler:     logMessage,
		Config: listener.Config{
			WorkerPoolSize:   cfg.ListenerWorkerPoolSize,
			PollingInterval:  cfg.ListenerPollingDuration,
			DeletionPolicy:   policy,
			DeduplicationTTL: cfg.ListenerDeduplicationDuration,
			KeyPrefix:        cfg.CacheKeyPrefix,
		},
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		return http.Run(ctx, http.NewServer(cfg.HTTPAddr))
	})
	g.Go(func() error {
		if cfg.LeaderElectionEnabled {
			return l.RunWithLeaderElection(ctx, listener.Election{
				Clientset: comp.Clientset,
				Namespace: cfg.PodNamespace,
				LockName:  cfg.LeaderElectionLockName,
				Identity:  cfg.PodName,
			})
		}
		return l.Run(ctx)
	})

	err = g.Wait()
	if ids, scanErr := l.InFlight(c.Context); scanErr == nil && len(ids) > 0 {
		logger.Warn("Stopped with %d messages in flight: %s", len(ids), strings.Join(ids, ", "))
	}
	return err
}

func logMessage(ctx context.Context, msg *message.Message) error {
	logger.InfoCtx(ctx, "Received message on %v: %s", msg.Headers[message.HeaderLogicalResourceID], msg.Payload)
	return nil
}

func templates(c *cli.Context) error {
	comp, err := setup(c)
	if err != nil {
		return err
	}
	for _, name := range comp.Registry.Names() {
		def, err := comp.Registry.Definition(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\tdestination=%s\tconverter=%s\n", def.Name, def.DefaultDestination, def.Converter)
	}
	return nil
}
