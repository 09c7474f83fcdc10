package midjourney

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"jan-server/services/midjourney-api/internal/domain/generation"
	"jan-server/services/midjourney-api/internal/domain/prompt"
)

// Gateway event names handled by the dispatcher.
const (
	eventMessageCreate      = "MESSAGE_CREATE"
	eventMessageUpdate      = "MESSAGE_UPDATE"
	eventInteractionFailure = "INTERACTION_FAILURE"
)

// errorEmbedColor is the red used by Midjourney for failure embeds.
const errorEmbedColor = 16711680

var (
	progressPattern = regexp.MustCompile(`\((\d{1,3})%\)`)
	angleLinks      = regexp.MustCompile(`<[^>\s]+>`)
	bareLinks       = regexp.MustCompile(`https?://\S+`)
	hashPattern     = regexp.MustCompile(`([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)
)

// gatewayMessage is the part of a Discord message the client needs.
type gatewayMessage struct {
	ID          string
	ChannelID   string
	AuthorID    string
	Content     string
	Nonce       string
	Flags       int
	ReferenceID string
	Attachments []string
	Options     []generation.Option
	ErrorText   string
}

func parseMessage(raw []byte) gatewayMessage {
	doc := gjson.ParseBytes(raw)
	msg := gatewayMessage{
		ID:          doc.Get("id").String(),
		ChannelID:   doc.Get("channel_id").String(),
		AuthorID:    doc.Get("author.id").String(),
		Content:     doc.Get("content").String(),
		Nonce:       doc.Get("nonce").String(),
		Flags:       int(doc.Get("flags").Int()),
		ReferenceID: doc.Get("message_reference.message_id").String(),
	}

	doc.Get("attachments").ForEach(func(_, attachment gjson.Result) bool {
		if u := attachment.Get("url").String(); u != "" {
			msg.Attachments = append(msg.Attachments, u)
		}
		return true
	})

	doc.Get("components").ForEach(func(_, row gjson.Result) bool {
		row.Get("components").ForEach(func(_, c gjson.Result) bool {
			label := c.Get("label").String()
			if label == "" {
				label = c.Get("emoji.name").String()
			}
			msg.Options = append(msg.Options, generation.Option{
				Label:  label,
				Type:   int(c.Get("type").Int()),
				Style:  int(c.Get("style").Int()),
				Custom: c.Get("custom_id").String(),
			})
			return true
		})
		return true
	})

	doc.Get("embeds").ForEach(func(_, embed gjson.Result) bool {
		if embed.Get("color").Int() != errorEmbedColor {
			return true
		}
		text := strings.TrimSpace(embed.Get("title").String())
		if desc := strings.TrimSpace(embed.Get("description").String()); desc != "" {
			if text != "" {
				text += ": "
			}
			text += desc
		}
		if text == "" {
			text = "midjourney reported an error"
		}
		msg.ErrorText = text
		return false
	})

	return msg
}

// progress returns the "NN%" marker of an in-flight message, or "done".
func (m gatewayMessage) progress() string {
	if match := progressPattern.FindStringSubmatch(m.Content); match != nil {
		return match[1] + "%"
	}
	if strings.Contains(m.Content, "(Waiting to start)") {
		return "waiting"
	}
	return "done"
}

// finished reports whether m carries a rendered image with its buttons.
func (m gatewayMessage) finished() bool {
	return len(m.Attachments) > 0 && len(m.Options) > 0 && m.progress() == "done"
}

func (m gatewayMessage) job() *generation.Job {
	uri := ""
	if len(m.Attachments) > 0 {
		uri = m.Attachments[0]
	}
	return &generation.Job{
		ID:       m.ID,
		URI:      uri,
		Hash:     imageHash(uri),
		Content:  m.Content,
		Progress: m.progress(),
		Flags:    m.Flags,
		Options:  m.Options,
	}
}

// imageHash extracts the job uuid Midjourney puts in attachment file names.
func imageHash(uri string) string {
	if uri == "" {
		return ""
	}
	name := uri
	if parsed, err := url.Parse(uri); err == nil {
		name = path.Base(parsed.Path)
	}
	if match := hashPattern.FindStringSubmatch(name); match != nil {
		return match[1]
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// promptKey normalizes prompt text so a submitted command and the message
// Midjourney posts for it compare equal. Links are rewritten by Midjourney
// and parameters may be reordered, so both are dropped.
func promptKey(text string) string {
	if start := strings.Index(text, "**"); start >= 0 {
		if end := strings.LastIndex(text, "**"); end > start {
			text = text[start+2 : end]
		}
	}
	text = angleLinks.ReplaceAllString(text, " ")
	text = bareLinks.ReplaceAllString(text, " ")
	text = prompt.StripFlags(text)
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
