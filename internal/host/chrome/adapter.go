// Package chrome implements the host adapter against a running Chrome
// instance over the DevTools protocol. Chrome must be started with
// --remote-debugging-port; the adapter opens one tab per session and
// drives the meeting UI by evaluating JavaScript in it.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/logging"
)

const evalTimeout = 10 * time.Second

// Adapter drives one meeting tab over the DevTools websocket.
type Adapter struct {
	devtoolsURL string
	joinTimeout time.Duration
	log         zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	tabID  string
	nextID int
}

var _ host.Adapter = (*Adapter)(nil)

// New creates a Chrome adapter. No connection is made until Join.
func New(devtoolsURL string, joinTimeout time.Duration) *Adapter {
	return &Adapter{
		devtoolsURL: devtoolsURL,
		joinTimeout: joinTimeout,
		log:         logging.WithComponent("host.chrome"),
	}
}

// Join opens a new tab on the link, clicks through the join flow and
// waits for the in-meeting state to be confirmed.
func (a *Adapter) Join(ctx context.Context, link string) (bool, error) {
	if err := a.openTab(ctx, link); err != nil {
		return false, fmt.Errorf("opening meeting tab: %w", err)
	}

	// Install the end-of-meeting probe early so it observes the whole
	// session.
	if _, err := a.eval(ctx, endWatchScript); err != nil {
		a.log.Warn().Err(err).Msg("Could not install end-of-meeting watch")
	}

	deadline := time.Now().Add(a.joinTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			a.closeTab()
			return false, ctx.Err()
		case <-time.After(2 * time.Second):
		}

		// Click whatever join button is visible, then check whether we
		// are in the meeting. Both calls are idempotent.
		if _, err := a.eval(ctx, clickJoinScript); err != nil {
			a.log.Debug().Err(err).Msg("Join click evaluation failed")
			continue
		}
		joined, err := a.evalBool(ctx, inMeetingScript)
		if err != nil {
			a.log.Debug().Err(err).Msg("In-meeting probe failed")
			continue
		}
		if joined {
			a.log.Info().Str("link", link).Msg("Join confirmed")
			return true, nil
		}
	}

	a.log.Warn().Str("link", link).Msg("Join not confirmed before timeout")
	a.closeTab()
	return false, nil
}

// Leave clicks the leave button if present and closes the tab.
// Best-effort on every step.
func (a *Adapter) Leave() {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()
	if _, err := a.eval(ctx, clickLeaveScript); err != nil {
		a.log.Debug().Err(err).Msg("Leave click failed")
	}
	a.closeTab()
}

// HasEnded reports whether the meeting UI shows the left-meeting state.
func (a *Adapter) HasEnded(ctx context.Context) (bool, error) {
	return a.evalBool(ctx, hasEndedScript)
}

// EnableCaptions clicks the captions toggle and installs the caption
// observer that keeps the latest caption in a page global.
func (a *Adapter) EnableCaptions(ctx context.Context) error {
	if _, err := a.eval(ctx, enableCaptionsScript); err != nil {
		return fmt.Errorf("enabling captions: %w", err)
	}
	if _, err := a.eval(ctx, captionObserverScript); err != nil {
		return fmt.Errorf("installing caption observer: %w", err)
	}
	return nil
}

// LatestCaption returns the observer's current caption value, if any.
func (a *Adapter) LatestCaption(ctx context.Context) (models.CaptionEvent, bool, error) {
	raw, err := a.eval(ctx, latestCaptionScript)
	if err != nil {
		return models.CaptionEvent{}, false, err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" || s == "null" {
		return models.CaptionEvent{}, false, nil
	}
	var payload struct {
		Timestamp string `json:"timestamp"`
		Speaker   string `json:"speaker"`
		Text      string `json:"text"`
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return models.CaptionEvent{}, false, fmt.Errorf("parsing caption payload: %w", err)
	}
	if payload.Text == "" {
		return models.CaptionEvent{}, false, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	return models.CaptionEvent{Timestamp: ts, Speaker: payload.Speaker, Text: payload.Text}, true, nil
}

// StopCaptions disconnects the in-page caption observer.
func (a *Adapter) StopCaptions() {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()
	if _, err := a.eval(ctx, stopCaptionsScript); err != nil {
		a.log.Debug().Err(err).Msg("Stopping caption observer failed")
	}
}

// openTab creates a DevTools target on the link and dials its websocket.
func (a *Adapter) openTab(ctx context.Context, link string) error {
	endpoint := fmt.Sprintf("%s/json/new?%s", a.devtoolsURL, url.QueryEscape(link))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("devtools /json/new returned %s", resp.Status)
	}

	var target struct {
		ID                   string `json:"id"`
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&target); err != nil {
		return fmt.Errorf("decoding devtools target: %w", err)
	}
	if target.WebSocketDebuggerURL == "" {
		return fmt.Errorf("devtools target has no websocket URL")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target.WebSocketDebuggerURL, nil)
	if err != nil {
		return fmt.Errorf("dialing devtools websocket: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.tabID = target.ID
	a.nextID = 0
	a.mu.Unlock()
	return nil
}

// closeTab tears down the websocket and asks Chrome to close the tab.
func (a *Adapter) closeTab() {
	a.mu.Lock()
	conn, tabID := a.conn, a.tabID
	a.conn, a.tabID = nil, ""
	a.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if tabID != "" {
		resp, err := http.Get(fmt.Sprintf("%s/json/close/%s", a.devtoolsURL, tabID))
		if err != nil {
			a.log.Debug().Err(err).Msg("Closing devtools tab failed")
			return
		}
		_ = resp.Body.Close()
	}
}

type cdpResponse struct {
	ID     int `json:"id"`
	Result struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// eval runs an expression via Runtime.evaluate and returns the JSON
// value. Calls are serialized; unrelated protocol events are skipped
// while waiting for the matching response id.
func (a *Adapter) eval(ctx context.Context, expression string) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return nil, fmt.Errorf("no devtools connection")
	}

	a.nextID++
	id := a.nextID
	req := map[string]any{
		"id":     id,
		"method": "Runtime.evaluate",
		"params": map[string]any{
			"expression":    expression,
			"returnByValue": true,
		},
	}
	if err := a.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("devtools write: %w", err)
	}

	deadline := time.Now().Add(evalTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = a.conn.SetReadDeadline(deadline)

	for {
		var resp cdpResponse
		if err := a.conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("devtools read: %w", err)
		}
		if resp.ID != id {
			// Protocol event or stale response.
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("devtools error: %s", resp.Error.Message)
		}
		if resp.Result.ExceptionDetails != nil {
			return nil, fmt.Errorf("page exception: %s", resp.Result.ExceptionDetails.Text)
		}
		return resp.Result.Result.Value, nil
	}
}

func (a *Adapter) evalBool(ctx context.Context, expression string) (bool, error) {
	raw, err := a.eval(ctx, expression)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, nil
	}
	return v, nil
}
