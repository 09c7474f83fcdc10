// Package midjourney drives the Midjourney bot through a Discord user session.
package midjourney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/generation"
)

const (
	interactionApplicationCommand = 2
	interactionMessageComponent   = 3

	componentButton = 2

	// discordEpoch is the snowflake epoch in milliseconds.
	discordEpoch = 1420070400000
)

// transport is the part of discordgo.Session used for REST calls.
type transport interface {
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

type command struct {
	ID      string
	Version string
}

type commandOption struct {
	Type  int    `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type commandData struct {
	Version string          `json:"version"`
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Options []commandOption `json:"options"`
}

type componentData struct {
	ComponentType int    `json:"component_type"`
	CustomID      string `json:"custom_id"`
}

type interactionPayload struct {
	Type          int         `json:"type"`
	ApplicationID string      `json:"application_id"`
	GuildID       string      `json:"guild_id"`
	ChannelID     string      `json:"channel_id"`
	SessionID     string      `json:"session_id"`
	Nonce         string      `json:"nonce"`
	MessageID     string      `json:"message_id,omitempty"`
	MessageFlags  *int        `json:"message_flags,omitempty"`
	Data          interface{} `json:"data"`
}

// Client implements generation.Bot on top of a Discord session.
type Client struct {
	cfg        *config.Config
	rest       transport
	dispatcher *dispatcher
	log        zerolog.Logger

	sessionMu sync.RWMutex
	sessionID string

	commandOnce sync.Once
	command     command

	seq atomic.Int64
	now func() time.Time
}

func newClient(cfg *config.Config, rest transport, log zerolog.Logger) *Client {
	logger := log.With().Str("component", "midjourney-client").Logger()
	return &Client{
		cfg:        cfg,
		rest:       rest,
		dispatcher: newDispatcher(cfg.ChannelID, cfg.MJApplicationID, logger),
		log:        logger,
		now:        time.Now,
	}
}

func (c *Client) setSessionID(id string) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.sessionID = id
}

func (c *Client) session() string {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.sessionID
}

// HandleEvent feeds a raw gateway event to the waiters.
func (c *Client) HandleEvent(eventType string, raw []byte) {
	c.dispatcher.handle(eventType, raw)
}

// Imagine submits /imagine and waits for the finished grid.
func (c *Client) Imagine(ctx context.Context, prompt string) (*generation.Job, error) {
	cmd := c.imagineCommand(ctx)
	nonce := c.nextNonce()

	w := newWaiter(nonce, promptKey(prompt), "")
	c.dispatcher.register(w)
	defer c.dispatcher.unregister(w)

	payload := c.payload(interactionApplicationCommand, nonce)
	payload.Data = commandData{
		Version: cmd.Version,
		ID:      cmd.ID,
		Name:    "imagine",
		Type:    1,
		Options: []commandOption{{Type: 3, Name: "prompt", Value: prompt}},
	}
	if err := c.interact(ctx, payload); err != nil {
		return nil, err
	}
	return w.wait(ctx)
}

// Custom presses a button of a finished message and waits for the result.
func (c *Client) Custom(ctx context.Context, action generation.CustomAction) (*generation.Job, error) {
	if action.MessageID == "" || action.CustomID == "" {
		return nil, errors.New("custom action needs a message id and a custom id")
	}
	nonce := c.nextNonce()

	w := newWaiter(nonce, promptKey(action.Content), action.MessageID)
	c.dispatcher.register(w)
	defer c.dispatcher.unregister(w)

	flags := action.Flags
	payload := c.payload(interactionMessageComponent, nonce)
	payload.MessageID = action.MessageID
	payload.MessageFlags = &flags
	payload.Data = componentData{ComponentType: componentButton, CustomID: action.CustomID}
	if err := c.interact(ctx, payload); err != nil {
		return nil, err
	}
	return w.wait(ctx)
}

func (c *Client) payload(kind int, nonce string) interactionPayload {
	return interactionPayload{
		Type:          kind,
		ApplicationID: c.cfg.MJApplicationID,
		GuildID:       c.cfg.ServerID,
		ChannelID:     c.cfg.ChannelID,
		SessionID:     c.session(),
		Nonce:         nonce,
	}
}

func (c *Client) interact(ctx context.Context, payload interactionPayload) error {
	endpoint := discordgo.EndpointAPI + "interactions"
	if _, err := c.rest.RequestWithBucketID(http.MethodPost, endpoint, payload, endpoint, discordgo.WithContext(ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("send interaction: %w", err)
	}
	return nil
}

// imagineCommand looks the command up once per client. The configured id and
// version are used when the search endpoint is unavailable.
func (c *Client) imagineCommand(ctx context.Context) command {
	c.commandOnce.Do(func() {
		c.command = command{ID: c.cfg.MJImagineCommandID, Version: c.cfg.MJImagineCommandVersion}

		endpoint := discordgo.EndpointChannel(c.cfg.ChannelID) + "/application-commands/search?type=1&include_applications=true&query=imagine"
		body, err := c.rest.RequestWithBucketID(http.MethodGet, endpoint, nil, discordgo.EndpointChannel(c.cfg.ChannelID), discordgo.WithContext(ctx))
		if err != nil {
			c.log.Warn().Err(err).Msg("imagine command lookup failed, using configured command")
			return
		}
		var found bool
		gjson.GetBytes(body, "application_commands").ForEach(func(_, cmd gjson.Result) bool {
			if cmd.Get("name").String() != "imagine" || cmd.Get("application_id").String() != c.cfg.MJApplicationID {
				return true
			}
			c.command = command{ID: cmd.Get("id").String(), Version: cmd.Get("version").String()}
			found = true
			return false
		})
		if !found {
			c.log.Warn().Msg("imagine command not listed for channel, using configured command")
		}
	})
	return c.command
}

func (c *Client) nextNonce() string {
	ms := c.now().UnixMilli() - discordEpoch
	return strconv.FormatInt(ms<<22|(c.seq.Add(1)&0xfff), 10)
}
