package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	verrors "github.com/vango-dev/vstore/internal/errors"
)

// Conn is a client connection to a devtools websocket stream.
type Conn struct {
	ws *websocket.Conn
}

// Dial connects to a devtools stream such as ws://localhost:7777/devtools/ws.
func Dial(ctx context.Context, streamURL string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, verrors.New("D002").Wrap(err).
			WithSuggestion(fmt.Sprintf("Start the server with 'vstore serve' and check that %s is reachable.", streamURL))
	}
	return &Conn{ws: ws}, nil
}

// Next blocks until the next frame arrives.
func (c *Conn) Next() (Frame, error) {
	var f Frame
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, verrors.New("D003").Wrap(err)
	}
	return f, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
	return c.ws.Close()
}

// Client reads the HTTP side of a devtools server.
type Client struct {
	// BaseURL is the mount point, such as http://localhost:7777/devtools.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewClient creates a client for the devtools mounted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Stores lists the attached stores.
func (c *Client) Stores(ctx context.Context) ([]StoreInfo, error) {
	body, err := c.get(ctx, "/stores")
	if err != nil {
		return nil, err
	}
	var infos []StoreInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, verrors.New("D003").Wrap(err)
	}
	return infos, nil
}

// State returns the JSON state of the named store.
func (c *Client) State(ctx context.Context, name string) (json.RawMessage, error) {
	body, err := c.get(ctx, "/stores/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, verrors.New("D003").Wrap(fmt.Errorf("state of %q is not valid JSON", name))
	}
	return json.RawMessage(body), nil
}

// StreamURL returns the websocket URL matching BaseURL.
func (c *Client) StreamURL() string {
	u := c.BaseURL + "/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, verrors.New("D002").Wrap(err)
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, verrors.New("D002").Wrap(err).
			WithSuggestion("Start the server with 'vstore serve'.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, verrors.New("D002").Wrap(err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, decodeError(body, "D004")
	case resp.StatusCode >= 400:
		return nil, decodeError(body, "D001")
	}
	return body, nil
}

// decodeError rebuilds a server-side error from its JSON form.
func decodeError(body []byte, fallback string) *verrors.Error {
	var remote struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
		Cause      string `json:"cause"`
	}
	if err := json.Unmarshal(body, &remote); err != nil || remote.Code == "" {
		return verrors.New(fallback).Wrap(fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}
	e := verrors.New(remote.Code)
	if remote.Cause != "" {
		e.Wrap(fmt.Errorf("%s", remote.Cause))
	}
	if remote.Suggestion != "" {
		e.WithSuggestion(remote.Suggestion)
	}
	return e
}
