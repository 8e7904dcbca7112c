package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	surveysync "github.com/goliatone/go-surveysync"
	"github.com/goliatone/go-surveysync/pkg/bridge"
	"github.com/goliatone/go-surveysync/pkg/bridge/ws"
	"github.com/goliatone/go-surveysync/pkg/metrics"
	"github.com/goliatone/go-surveysync/pkg/renderers/tui"
)

var (
	clientURL         string
	clientMetricsAddr string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Answer surveys pushed by a host in the terminal",
	Long: `Connect to a host bridge and prompt for every survey it pushes.

Answers are reported back as they change; completing the prompts sends the
full answer document. Values survive definition reloads, so a re-pushed
survey starts from the previous answers.`,
	RunE: runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientURL, "url", "", "Host bridge URL (default $SURVEYSYNC_BRIDGE_URL)")
	clientCmd.Flags().StringVar(&clientMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func runClient(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("")
	if clientMetricsAddr != "" {
		server := &http.Server{
			Addr:              clientMetricsAddr,
			Handler:           collector.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	container := tui.New(
		tui.WithLogger(logger),
		tui.WithTheme(tui.Theme{TitlePrefix: "» ", InfoPrefix: "✓ "}),
	)

	var (
		eng          *surveysync.Engine
		lastPrompted string
	)
	promptLoaded := func(msg bridge.Message) {
		if msg.Kind != bridge.KindLoadSurvey || eng == nil {
			return
		}
		survey := eng.Controller().Survey()
		if survey == nil || survey.ID() == lastPrompted {
			return
		}
		lastPrompted = survey.ID()
		if err := container.Run(ctx); err != nil {
			if errors.Is(err, tui.ErrAborted) {
				stop()
				return
			}
			logger.Error("prompt failed", zap.Error(err))
		}
	}

	url := firstNonEmpty(clientURL, cfg.BridgeURL)
	client, err := ws.Dial(ctx, url,
		ws.WithClientLogger(logger),
		ws.WithHandshakeTimeout(cfg.HandshakeTimeout),
		ws.WithAfterDispatch(promptLoaded),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	eng = surveysync.New(container,
		surveysync.WithBridge(client),
		surveysync.WithLogger(logger),
		surveysync.WithSettings(cfg.EngineSettings()),
		surveysync.WithMetrics(collector),
	)
	logger.Info("Connected to host", zap.String("url", url))

	err = client.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
