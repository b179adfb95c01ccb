package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"StockPredict/internal/domain/models"
	"StockPredict/internal/service/feed"
	"StockPredict/internal/services/forest"
	"StockPredict/pkg/config"
	xhttp "StockPredict/pkg/http"
)

func main() {
	app := newApp(os.Stdin, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "predict",
		Usage:     "forecast a closing price from a JSON payload on stdin",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: io.Discard,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config supplying forest parameters"},
			&cli.Uint64Flag{Name: "seed", Usage: "fixed random seed (0 draws a fresh one)"},
			&cli.StringFlag{Name: "remote", Usage: "POST the payload to a running server instead of predicting locally"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "remote request timeout"},
		},
		Action: predictAction,
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "stream prediction events from a running server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "server base URL"},
					&cli.StringFlag{Name: "symbol", Usage: "only stream events for this symbol"},
					&cli.DurationFlag{Name: "ping", Value: 30 * time.Second},
				},
				Action: watchAction,
			},
		},
	}
}

func predictAction(c *cli.Context) error {
	payload, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	if remote := c.String("remote"); remote != "" {
		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		client := xhttp.NewClient(remote, xhttp.WithTimeout(c.Duration("timeout")))
		var raw json.RawMessage
		if err := client.PostJSON(ctx, "/api/predict", payload, &raw); err != nil {
			return err
		}
		// echo the server response untouched
		_, err := fmt.Fprintln(c.App.Writer, string(raw))
		return err
	}

	req, err := models.ParsePredictRequest(payload)
	if err != nil {
		return err
	}
	params, err := forestParams(c)
	if err != nil {
		return err
	}
	resp := forest.New(params).Predict(req.HistoricalData, req.DaysAhead).Response()

	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(b))
	return err
}

func forestParams(c *cli.Context) (forest.Params, error) {
	params := forest.DefaultParams()
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return params, err
		}
		params = cfg.Forest
	}
	if c.IsSet("seed") {
		params.Seed = c.Uint64("seed")
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

func watchAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := feed.New(c.String("url"), c.String("symbol"), c.Duration("ping"))
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	events, errs := client.Read(ctx)
	enc := json.NewEncoder(c.App.Writer)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	if err, ok := <-errs; ok && err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
