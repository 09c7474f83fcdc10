package midjourney

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/infrastructure/metrics"
)

var errNotConfigured = errors.New("SERVER_ID, CHANNEL_ID and SALAI_TOKEN must be set")

// dialFunc opens a session and returns a ready client plus its closer.
type dialFunc func(ctx context.Context) (*Client, func() error, error)

// Connector owns the process-wide Midjourney client. The first caller
// connects it; concurrent callers share that attempt. A failed attempt is not
// remembered, so the next request tries again.
type Connector struct {
	cfg   *config.Config
	log   zerolog.Logger
	dial  dialFunc
	group singleflight.Group

	mu     sync.RWMutex
	client *Client
	close  func() error
}

// NewConnector creates a connector that dials Discord with discordgo.
func NewConnector(cfg *config.Config, log zerolog.Logger) *Connector {
	c := &Connector{
		cfg: cfg,
		log: log.With().Str("component", "midjourney-connector").Logger(),
	}
	c.dial = c.dialDiscord
	return c
}

// Ready reports whether a client is connected.
func (c *Connector) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client != nil
}

// Bot returns the shared client, connecting it if needed.
func (c *Connector) Bot(ctx context.Context) (generation.Bot, error) {
	if client := c.current(); client != nil {
		return client, nil
	}
	if !c.cfg.MidjourneyConfigured() {
		return nil, errNotConfigured
	}

	ch := c.group.DoChan("connect", func() (interface{}, error) {
		if client := c.current(); client != nil {
			return client, nil
		}
		// The attempt is shared, so it is not bound to the caller's context.
		dialCtx, cancel := context.WithTimeout(context.Background(), c.cfg.MJConnectTimeout)
		defer cancel()

		client, closer, err := c.dial(dialCtx)
		if err != nil {
			c.log.Error().Err(err).Msg("midjourney client initialization failed")
			return nil, err
		}
		c.mu.Lock()
		c.client = client
		c.close = closer
		c.mu.Unlock()
		metrics.SetDiscordConnected(true)
		c.log.Info().Str("channel_id", c.cfg.ChannelID).Msg("midjourney client initialized")
		return client, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Client), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Warmup connects in the background of startup; failures are only logged.
func (c *Connector) Warmup(ctx context.Context) {
	if !c.cfg.MidjourneyConfigured() {
		c.log.Warn().Msg("midjourney credentials are not set; bot endpoints will fail until configured")
		return
	}
	if _, err := c.Bot(ctx); err != nil {
		c.log.Warn().Err(err).Msg("midjourney warm-up failed; will retry on first request")
	}
}

// Close closes the Discord session if one is open.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.close == nil {
		return nil
	}
	err := c.close()
	c.client = nil
	c.close = nil
	metrics.SetDiscordConnected(false)
	return err
}

func (c *Connector) current() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Connector) dialDiscord(ctx context.Context) (*Client, func() error, error) {
	session, err := discordgo.New(c.cfg.SalaiToken)
	if err != nil {
		return nil, nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	client := newClient(c.cfg, session, c.log)
	ready := make(chan struct{}, 1)

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		client.setSessionID(r.SessionID)
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	session.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
		client.HandleEvent(e.Type, e.RawData)
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Connect) {
		metrics.SetDiscordConnected(true)
	})
	session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		metrics.SetDiscordConnected(false)
		c.log.Warn().Msg("discord gateway disconnected")
	})

	if err := session.Open(); err != nil {
		return nil, nil, fmt.Errorf("open discord gateway: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		_ = session.Close()
		return nil, nil, fmt.Errorf("waiting for discord ready: %w", ctx.Err())
	}
	return client, session.Close, nil
}
