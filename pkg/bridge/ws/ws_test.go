package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/goliatone/go-surveysync/pkg/bridge"
	"github.com/goliatone/go-surveysync/pkg/bridge/ws"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/lifecycle"
	"github.com/goliatone/go-surveysync/pkg/renderers/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const definitionJSON = `{"questions":[{"name":"q1","type":"dropdown","choices":["a","b"]},{"name":"q2","type":"text"}]}`

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientHub_RoundTrip(t *testing.T) {
	connected := make(chan *ws.Session, 1)
	inputs := make(chan ws.InputFrame, 8)
	hub := ws.NewHub(
		ws.OnConnect(func(s *ws.Session) { connected <- s }),
		ws.OnInput(func(_ *ws.Session, frame ws.InputFrame) { inputs <- frame }),
	)
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dispatched := make(chan string, 8)
	client, err := ws.Dial(ctx, wsURL(server), ws.WithAfterDispatch(func(msg bridge.Message) {
		dispatched <- msg.Kind
	}))
	require.NoError(t, err)

	controller := lifecycle.New(formengine.NewFactory(), memory.New(memory.WithRenderOnBind()))
	bridge.NewAdapter(client, controller).Register()

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	session := receive(t, connected)
	require.NotEmpty(t, session.ID())
	require.Equal(t, 1, hub.Sessions())

	require.NoError(t, session.Send(bridge.KindLoadSurvey, json.RawMessage(definitionJSON)))
	require.NoError(t, session.Send(bridge.KindUpdateText, bridge.UpdateTextPayload{TargetQuestion: "q2", Text: "hello"}))
	require.Equal(t, bridge.KindLoadSurvey, receive(t, dispatched))
	require.Equal(t, bridge.KindUpdateText, receive(t, dispatched))

	frame := receive(t, inputs)
	require.Equal(t, lifecycle.OutputSelectedChoice, frame.Name)
	var selected lifecycle.SelectedChoice
	require.NoError(t, frame.Decode(&selected))
	require.Equal(t, lifecycle.SelectedChoice{FieldName: "q2", Selected: "hello"}, selected)

	require.NoError(t, client.Post(func() { controller.Survey().Complete() }))
	frame = receive(t, inputs)
	require.Equal(t, lifecycle.OutputSurveyData, frame.Name)
	var data string
	require.NoError(t, frame.Decode(&data))
	require.JSONEq(t, `{"q2":"hello"}`, data)

	require.NoError(t, client.Close())
	require.NoError(t, receive(t, runErr))
	require.ErrorIs(t, client.SetInputValue("late", 1), ws.ErrClosed)
	require.ErrorIs(t, client.Post(func() {}), ws.ErrClosed)
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	connected := make(chan *ws.Session, 2)
	hub := ws.NewHub(ws.OnConnect(func(s *ws.Session) { connected <- s }))
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := make(chan bridge.Message, 4)
	var clients []*ws.Client
	for i := 0; i < 2; i++ {
		client, err := ws.Dial(ctx, wsURL(server))
		require.NoError(t, err)
		client.HandleMessage(bridge.KindLoadSurvey, func(msg bridge.Message) { received <- msg })
		clients = append(clients, client)
		receive(t, connected)
	}

	runErrs := make(chan error, len(clients))
	for _, client := range clients {
		go func(c *ws.Client) { runErrs <- c.Run(ctx) }(client)
	}

	sent, err := hub.Broadcast(bridge.KindLoadSurvey, definitionJSON)
	require.NoError(t, err)
	require.Equal(t, 2, sent)

	for i := 0; i < 2; i++ {
		msg := receive(t, received)
		var text string
		require.NoError(t, json.Unmarshal(msg.Payload, &text))
		require.Equal(t, definitionJSON, text)
	}

	for _, client := range clients {
		require.NoError(t, client.Close())
	}
	for range clients {
		require.NoError(t, receive(t, runErrs))
	}
}

func TestClient_RunStopsOnContextCancel(t *testing.T) {
	hub := ws.NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()
	defer hub.Close()

	client, err := ws.Dial(context.Background(), wsURL(server))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, client.Run(ctx), context.Canceled)
}

func TestDial_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ws.Dial(ctx, "ws://127.0.0.1:1/bridge", ws.WithHandshakeTimeout(time.Second))
	require.Error(t, err)
}

func TestInputFrame_DecodeEmpty(t *testing.T) {
	var out any
	require.Error(t, ws.InputFrame{Name: "x"}.Decode(&out))
}
