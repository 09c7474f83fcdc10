package midjourney

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/midjourney-api/internal/config"
	"jan-server/services/midjourney-api/internal/domain/generation"
)

const (
	testChannel = "chan"
	testApp     = "936929561302675456"
)

type fakeTransport struct {
	mu       sync.Mutex
	searches int
	search   []byte
	err      error
	posted   chan interactionPayload
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		search: []byte(`{"application_commands":[{"id":"999","version":"888","name":"imagine","application_id":"` + testApp + `"}]}`),
		posted: make(chan interactionPayload, 4),
	}
}

func (f *fakeTransport) RequestWithBucketID(method, urlStr string, data interface{}, _ string, _ ...discordgo.RequestOption) ([]byte, error) {
	if method == http.MethodGet {
		f.mu.Lock()
		f.searches++
		f.mu.Unlock()
		return f.search, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	f.posted <- data.(interactionPayload)
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServerID:                "guild",
		ChannelID:               testChannel,
		SalaiToken:              "token",
		MJApplicationID:         testApp,
		MJImagineCommandID:      "111",
		MJImagineCommandVersion: "222",
		MJConnectTimeout:        time.Second,
	}
}

func newTestClient(rest transport) *Client {
	client := newClient(testConfig(), rest, zerolog.Nop())
	client.setSessionID("sess")
	return client
}

func event(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	if _, ok := fields["channel_id"]; !ok {
		fields["channel_id"] = testChannel
	}
	if _, ok := fields["author"]; !ok {
		fields["author"] = map[string]any{"id": testApp}
	}
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return raw
}

func gridComponents() []any {
	buttons := []any{}
	for _, label := range []string{"U1", "U2", "U3", "U4"} {
		buttons = append(buttons, map[string]any{"type": 2, "style": 2, "label": label, "custom_id": "MJ::JOB::upsample::" + label[1:] + "::hash"})
	}
	return []any{map[string]any{"type": 1, "components": buttons}}
}

func TestImagineWaitsForFinishedGrid(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	go func() {
		p := <-rest.posted
		client.HandleEvent(eventMessageCreate, event(t, map[string]any{
			"id": "100", "nonce": p.Nonce,
			"content": "**a red fox --ar 16:9** - <@1> (Waiting to start)",
		}))
		client.HandleEvent(eventMessageUpdate, event(t, map[string]any{
			"id": "100", "content": "**a red fox --ar 16:9** - <@1> (31%) (fast)",
			"attachments": []any{map[string]any{"url": "https://cdn.example/progress.webp"}},
			"components":  gridComponents(),
		}))
		client.HandleEvent(eventMessageCreate, event(t, map[string]any{
			"id": "150", "author": map[string]any{"id": "someone-else"},
			"content":     "**a red fox** - <@2> (fast)",
			"attachments": []any{map[string]any{"url": "https://cdn.example/other.png"}},
			"components":  gridComponents(),
		}))
		client.HandleEvent(eventMessageCreate, event(t, map[string]any{
			"id": "200", "flags": 0,
			"content":     "**<https://s.mj.run/abc> a red fox --ar 16:9 --v 6** - <@1> (fast)",
			"attachments": []any{map[string]any{"url": "https://cdn.example/grid.png"}},
			"components":  gridComponents(),
		}))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := client.Imagine(ctx, "https://example.com/ref.png a red fox --ar 16:9")
	require.NoError(t, err)

	assert.Equal(t, "200", job.ID)
	assert.Equal(t, "https://cdn.example/grid.png", job.URI)
	assert.Len(t, generation.UpscaleOptions(job), 4)
}

func TestImaginePayload(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Imagine(ctx, "a red fox")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	p := <-rest.posted
	assert.Equal(t, interactionApplicationCommand, p.Type)
	assert.Equal(t, testApp, p.ApplicationID)
	assert.Equal(t, "guild", p.GuildID)
	assert.Equal(t, testChannel, p.ChannelID)
	assert.Equal(t, "sess", p.SessionID)
	assert.NotEmpty(t, p.Nonce)

	data, ok := p.Data.(commandData)
	require.True(t, ok)
	assert.Equal(t, "999", data.ID)
	assert.Equal(t, "888", data.Version)
	assert.Equal(t, "imagine", data.Name)
	require.Len(t, data.Options, 1)
	assert.Equal(t, "a red fox", data.Options[0].Value)
}

func TestImagineCommandFallsBackToConfig(t *testing.T) {
	rest := newFakeTransport()
	rest.search = []byte(`{"application_commands":[]}`)
	client := newTestClient(rest)

	cmd := client.imagineCommand(context.Background())
	assert.Equal(t, command{ID: "111", Version: "222"}, cmd)
	client.imagineCommand(context.Background())
	assert.Equal(t, 1, rest.searches)
}

func TestImagineReportsErrorEmbed(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	go func() {
		p := <-rest.posted
		client.HandleEvent(eventMessageCreate, event(t, map[string]any{
			"id": "100", "nonce": p.Nonce,
			"embeds": []any{map[string]any{"color": errorEmbedColor, "title": "Invalid parameter", "description": "Unrecognized parameter(s): --foo"}},
		}))
	}()

	_, err := client.Imagine(context.Background(), "a fox --foo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid parameter")
}

func TestImagineReportsInteractionFailure(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	go func() {
		p := <-rest.posted
		client.HandleEvent(eventInteractionFailure, []byte(`{"nonce":"`+p.Nonce+`"}`))
	}()

	_, err := client.Imagine(context.Background(), "a fox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestImagineTransportError(t *testing.T) {
	rest := newFakeTransport()
	rest.err = errors.New("HTTP 401 Unauthorized")
	client := newTestClient(rest)

	_, err := client.Imagine(context.Background(), "a fox")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "send interaction"))
}

func TestCustomMatchesReferencedMessage(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	go func() {
		<-rest.posted
		// The grid itself is re-posted with disabled buttons; it is not the result.
		client.HandleEvent(eventMessageUpdate, event(t, map[string]any{
			"id": "200", "content": "**a red fox** - <@1> (fast)",
			"attachments": []any{map[string]any{"url": "https://cdn.example/grid.png"}},
			"components":  gridComponents(),
		}))
		client.HandleEvent(eventMessageCreate, event(t, map[string]any{
			"id": "300", "content": "**a red fox** - Image #1 <@1>",
			"message_reference": map[string]any{"message_id": "200"},
			"attachments":       []any{map[string]any{"url": "https://cdn.example/upscaled.png"}},
			"components": []any{map[string]any{"type": 1, "components": []any{
				map[string]any{"type": 2, "style": 2, "label": "Vary (Subtle)", "custom_id": "MJ::JOB::low_variation::1::hash"},
			}}},
		}))
	}()

	job, err := client.Custom(context.Background(), generation.CustomAction{
		MessageID: "200",
		Flags:     64,
		CustomID:  "MJ::JOB::upsample::1::hash",
		Content:   "**a red fox** - <@1> (fast)",
	})
	require.NoError(t, err)
	assert.Equal(t, "300", job.ID)
	assert.Equal(t, "https://cdn.example/upscaled.png", job.URI)
}

func TestCustomPayload(t *testing.T) {
	rest := newFakeTransport()
	client := newTestClient(rest)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Custom(ctx, generation.CustomAction{MessageID: "200", Flags: 64, CustomID: "MJ::JOB::upsample::2::hash"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	p := <-rest.posted
	assert.Equal(t, interactionMessageComponent, p.Type)
	assert.Equal(t, "200", p.MessageID)
	require.NotNil(t, p.MessageFlags)
	assert.Equal(t, 64, *p.MessageFlags)
	assert.Equal(t, componentData{ComponentType: componentButton, CustomID: "MJ::JOB::upsample::2::hash"}, p.Data)

	_, err = client.Custom(context.Background(), generation.CustomAction{MessageID: "200"})
	assert.Error(t, err)
}

func TestNoncesAreUnique(t *testing.T) {
	client := newTestClient(newFakeTransport())
	fixed := time.UnixMilli(1700000000000)
	client.now = func() time.Time { return fixed }
	assert.NotEqual(t, client.nextNonce(), client.nextNonce())
}
