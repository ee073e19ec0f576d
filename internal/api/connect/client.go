package connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

// Client calls the PlayerService.
type Client struct {
	token string

	getState    *connect.Client[Empty, StateView]
	getStatus   *connect.Client[Empty, StatusView]
	listTracks  *connect.Client[Empty, CatalogView]
	selectTrack *connect.Client[SelectTrackRequest, StateView]
	subscribe   *connect.Client[Empty, NotificationView]
	controls    map[string]*connect.Client[Empty, StateView]
}

// NewClient creates a PlayerService client. token may be empty.
func NewClient(baseURL, token string, httpClient connect.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	codec := connect.WithCodec(jsonCodec{})

	c := &Client{
		token:       token,
		getState:    connect.NewClient[Empty, StateView](httpClient, baseURL+GetStateProcedure, codec),
		getStatus:   connect.NewClient[Empty, StatusView](httpClient, baseURL+GetStatusProcedure, codec),
		listTracks:  connect.NewClient[Empty, CatalogView](httpClient, baseURL+ListTracksProcedure, codec),
		selectTrack: connect.NewClient[SelectTrackRequest, StateView](httpClient, baseURL+SelectTrackProcedure, codec),
		subscribe:   connect.NewClient[Empty, NotificationView](httpClient, baseURL+SubscribeNotificationsProcedure, codec),
		controls:    make(map[string]*connect.Client[Empty, StateView], len(actionProcedures)),
	}
	for action, procedure := range actionProcedures {
		c.controls[action] = connect.NewClient[Empty, StateView](httpClient, baseURL+procedure, codec)
	}
	return c
}

func newRequest[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set(ControlTokenHeader, token)
	}
	return req
}

// State returns the current playback state.
func (c *Client) State(ctx context.Context) (*StateView, error) {
	res, err := c.getState.CallUnary(ctx, newRequest(c.token, &Empty{}))
	if err != nil {
		return nil, errors.Wrap(err, "GetState")
	}
	return res.Msg, nil
}

// Status returns the player status.
func (c *Client) Status(ctx context.Context) (*StatusView, error) {
	res, err := c.getStatus.CallUnary(ctx, newRequest(c.token, &Empty{}))
	if err != nil {
		return nil, errors.Wrap(err, "GetStatus")
	}
	return res.Msg, nil
}

// Tracks returns the catalog.
func (c *Client) Tracks(ctx context.Context) (*CatalogView, error) {
	res, err := c.listTracks.CallUnary(ctx, newRequest(c.token, &Empty{}))
	if err != nil {
		return nil, errors.Wrap(err, "ListTracks")
	}
	return res.Msg, nil
}

// Control invokes a control action such as "play" or "next".
func (c *Client) Control(ctx context.Context, action string) (*StateView, error) {
	client, ok := c.controls[action]
	if !ok {
		return nil, errors.Newf("unknown action: %s", action)
	}
	res, err := client.CallUnary(ctx, newRequest(c.token, &Empty{}))
	if err != nil {
		return nil, errors.Wrap(err, action)
	}
	return res.Msg, nil
}

// Select plays the track at the zero-based index.
func (c *Client) Select(ctx context.Context, index int) (*StateView, error) {
	res, err := c.selectTrack.CallUnary(ctx, newRequest(c.token, &SelectTrackRequest{Index: index}))
	if err != nil {
		return nil, errors.Wrap(err, "SelectTrack")
	}
	return res.Msg, nil
}

// Subscribe reads the notification stream and calls fn for each notification
// until ctx is cancelled, the server ends the stream, or fn returns an error.
func (c *Client) Subscribe(ctx context.Context, fn func(NotificationView) error) error {
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.subscribe.CallServerStream(streamCtx, newRequest(c.token, &Empty{}))
	if err != nil {
		cancel()
		return errors.Wrap(err, "failed to open notification stream")
	}
	defer func() {
		// Cancel before Close: Close drains the response body
		cancel()
		_ = stream.Close()
	}()

	for stream.Receive() {
		if err := fn(*stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "notification stream failed")
	}
	return nil
}
