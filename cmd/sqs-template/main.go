package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"aws-sqs-messaging-template/internal/app/registry"
	"aws-sqs-messaging-template/internal/pkg/logger"
)

func main() {
	templateFlag := &cli.StringFlag{
		Name:    "template",
		Aliases: []string{"t"},
		Usage:   "The registered template to use",
		EnvVars: []string{"TEMPLATE"},
		Value:   registry.DefaultTemplate,
	}
	destinationFlag := &cli.StringFlag{
		Name:    "destination",
		Aliases: []string{"d"},
		Usage:   "The destination to use instead of the template's default destination",
	}

	app := &cli.App{
		Name:  "sqs-template",
		Usage: "Send and receive messages through the registered queue messaging templates",
		Before: func(*cli.Context) error {
			return logger.Setup()
		},
		After: func(*cli.Context) error {
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Convert a payload and send it",
				ArgsUsage: "<payload>",
				Flags: []cli.Flag{
					templateFlag,
					destinationFlag,
					&cli.StringSliceFlag{
						Name:    "header",
						Aliases: []string{"H"},
						Usage:   "A message header as key=value, repeatable",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Decode the payload as JSON before converting it",
					},
					&cli.IntFlag{
						Name:  "delay",
						Usage: "Delivery delay in seconds (0-900)",
					},
					&cli.StringFlag{
						Name:  "group-id",
						Usage: "The message group id, required for FIFO queues",
					},
					&cli.StringFlag{
						Name:  "deduplication-id",
						Usage: "The message deduplication id for FIFO queues",
					},
				},
				Action: send,
			},
			{
				Name:  "receive",
				Usage: "Receive messages and print them as JSON lines",
				Flags: []cli.Flag{
					templateFlag,
					destinationFlag,
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "The maximum number of messages to receive",
						Value:   1,
					},
				},
				Action: receive,
			},
			{
				Name:  "listen",
				Usage: "Consume a destination with a worker pool until interrupted",
				Flags: []cli.Flag{
					templateFlag,
					destinationFlag,
				},
				Action: listen,
			},
			{
				Name:   "templates",
				Usage:  "List the registered templates",
				Action: templates,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
