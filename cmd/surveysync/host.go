package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/bridge"
	"github.com/goliatone/go-surveysync/pkg/bridge/ws"
	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/lifecycle"
	"github.com/goliatone/go-surveysync/pkg/metrics"
)

var (
	hostAddr       string
	hostDefinition string
	hostWatch      bool
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Serve survey definitions and updates to connected clients",
	Long: `Serve the survey bridge.

Endpoints:
  /bridge    websocket clients connect here
  /messages  POST {"type": "...", "message": {...}} to broadcast a message
  /metrics   Prometheus metrics

Every client receives the current definition when it connects. With --watch
the definition file is re-pushed whenever it changes.`,
	RunE: runHost,
}

func init() {
	hostCmd.Flags().StringVar(&hostAddr, "addr", "", "Listen address (default $SURVEYSYNC_ADDR)")
	hostCmd.Flags().StringVarP(&hostDefinition, "definition", "d", "", "Survey definition file or URL (default $SURVEYSYNC_DEFINITION)")
	hostCmd.Flags().BoolVar(&hostWatch, "watch", false, "Re-push the definition when the file changes")
}

// definitionHolder guards the definition pushed to new sessions.
type definitionHolder struct {
	mu  sync.RWMutex
	def definition.Definition
}

func (h *definitionHolder) get() definition.Definition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.def
}

func (h *definitionHolder) set(def definition.Definition) {
	h.mu.Lock()
	h.def = def
	h.mu.Unlock()
}

func runHost(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := firstNonEmpty(hostAddr, cfg.Addr)
	location := firstNonEmpty(hostDefinition, cfg.Definition)
	if location == "" {
		return errors.New("a survey definition is required (--definition or SURVEYSYNC_DEFINITION)")
	}

	src, err := definition.ResolveSource(location)
	if err != nil {
		return err
	}
	loader := definition.NewLoader(definition.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	def, err := loader.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("load definition: %w", err)
	}
	current := &definitionHolder{def: def}
	logger.Info("Definition loaded",
		zap.String("source", location),
		zap.Int("questions", len(def.Questions())))

	collector := metrics.NewCollector("")
	var hub *ws.Hub
	hub = ws.NewHub(
		ws.WithHubLogger(logger),
		ws.OnConnect(func(s *ws.Session) {
			collector.SetSessions(hub.Sessions())
			if err := s.Send(bridge.KindLoadSurvey, current.get().Canonical()); err != nil {
				logger.Warn("push definition failed", zap.String("session", s.ID()), zap.Error(err))
			}
		}),
		ws.OnInput(func(s *ws.Session, frame ws.InputFrame) {
			collector.ObserveInput(frame.Name)
			reportInput(os.Stdout, s.ID(), frame)
		}),
	)
	defer hub.Close()

	if hostWatch && src.Kind() == definition.SourceKindFile {
		watcher, err := watchDefinition(ctx, src.Location(), func() {
			reloaded, err := loader.Load(ctx, src)
			if err != nil {
				logger.Warn("reload definition failed", zap.Error(err))
				return
			}
			current.set(reloaded)
			n, err := hub.Broadcast(bridge.KindLoadSurvey, reloaded.Canonical())
			if err != nil {
				logger.Warn("broadcast definition failed", zap.Error(err))
			}
			logger.Info("Definition re-pushed", zap.Int("sessions", n))
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/bridge", hub)
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/messages", messagesHandler(hub))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Host listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	return server.Shutdown(shutdownCtx)
}

func messagesHandler(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var env ws.Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			http.Error(w, "invalid envelope: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch env.Type {
		case bridge.KindLoadSurvey, bridge.KindUpdateText, bridge.KindUpdateChoices:
		default:
			http.Error(w, fmt.Sprintf("unknown message type %q", env.Type), http.StatusBadRequest)
			return
		}

		n, err := hub.Broadcast(env.Type, env.Message)
		if err != nil {
			logger.Warn("broadcast failed", zap.String("type", env.Type), zap.Error(err))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"delivered": n})
	}
}

// reportInput prints answers received from a client. surveyData arrives as
// a JSON string holding the answers document.
func reportInput(out io.Writer, session string, frame ws.InputFrame) {
	switch frame.Name {
	case lifecycle.OutputSurveyData:
		var data string
		if err := frame.Decode(&data); err != nil {
			logger.Warn("malformed survey data", zap.String("session", session), zap.Error(err))
			return
		}
		logger.Info("Survey completed",
			zap.String("session", session),
			zap.Int("answers", len(gjson.Parse(data).Map())))
		fmt.Fprintf(out, "%s\n", pretty.Pretty([]byte(data)))
	case lifecycle.OutputSelectedChoice:
		value := gjson.ParseBytes(frame.Value)
		logger.Info("Value changed",
			zap.String("session", session),
			zap.String("field", value.Get("fieldName").String()),
			zap.String("selected", value.Get("selected").Raw))
	default:
		logger.Debug("Input received", zap.String("session", session), zap.String("name", frame.Name))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
