package groupme

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/you/groupme-archive/internal/core"
)

// errEndOfHistory marks the 304 the messages endpoints answer once a
// chat's history is exhausted.
var errEndOfHistory = errors.New("groupme: end of history")

type messagePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	System    bool   `json:"system"`
}

func (m messagePayload) message(chat core.Chat) core.Message {
	return core.Message{
		ID:           m.ID,
		Author:       m.Name,
		AuthorAvatar: m.AvatarURL,
		ChatName:     chat.Name,
		IsGroup:      chat.IsGroup,
		SentAt:       time.Unix(m.CreatedAt, 0).UTC(),
		Text:         m.Text,
	}
}

// MessageQuery selects which messages to export.
type MessageQuery struct {
	// Chat restricts the export to one chat; nil exports every chat
	// active within the window.
	Chat *core.Chat
	// Start and End bound the time window; zero values mean the
	// beginning of history and the present, respectively.
	Start time.Time
	End   time.Time
	// Keyword keeps only messages containing the string, plus Before
	// preceding and After following messages around each match.
	Keyword string
	Before  int
	After   int
}

// Messages fetches every message matching the query, ascending by send
// time across all selected chats. The returned order is the sequence
// invariant the report builder depends on.
func (c *Client) Messages(ctx context.Context, q MessageQuery) ([]core.Message, error) {
	var chats []core.Chat
	if q.Chat != nil {
		chats = []core.Chat{*q.Chat}
	} else {
		all, err := c.Chats(ctx, q.Start)
		if err != nil {
			return nil, err
		}
		chats = all
	}

	var out []core.Message
	for _, chat := range chats {
		msgs, err := c.chatMessages(ctx, chat, q)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}

	// Per-chat slices are each ascending; a stable sort interleaves
	// them into one globally ascending stream.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

// chatMessages pages one chat's history newest-first, keeps the window,
// and returns it ascending with the keyword filter applied.
func (c *Client) chatMessages(ctx context.Context, chat core.Chat, q MessageQuery) ([]core.Message, error) {
	var window []core.Message
	beforeID := ""

	for {
		page, err := c.messagePage(ctx, chat, beforeID)
		if errors.Is(err, errEndOfHistory) || (err == nil && len(page) == 0) {
			break
		}
		if err != nil {
			return nil, err
		}

		done := false
		for _, m := range page {
			if m.System {
				continue
			}
			msg := m.message(chat)
			if !q.Start.IsZero() && msg.SentAt.Before(q.Start) {
				done = true
				break
			}
			if !q.End.IsZero() && msg.SentAt.After(q.End) {
				continue
			}
			window = append(window, msg)
		}

		apiMessagesFetched.Add(int64(len(page)))
		log.Printf("querier: %s: fetched %d messages...", chat.Name, len(window))

		if done {
			break
		}
		beforeID = page[len(page)-1].ID
	}

	// Pages arrive newest first; flip to ascending.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}

	return filterKeyword(window, q.Keyword, q.Before, q.After), nil
}

func (c *Client) messagePage(ctx context.Context, chat core.Chat, beforeID string) ([]messagePayload, error) {
	params := url.Values{"limit": []string{strconv.Itoa(messagePageSize)}}
	if beforeID != "" {
		params.Set("before_id", beforeID)
	}

	if chat.IsGroup {
		var payload struct {
			Count    int              `json:"count"`
			Messages []messagePayload `json:"messages"`
		}
		if err := c.get(ctx, "/groups/"+chat.ID+"/messages", params, "fetch messages", &payload); err != nil {
			return nil, err
		}
		return payload.Messages, nil
	}

	params.Set("other_user_id", chat.OtherUserID)
	var payload struct {
		Count          int              `json:"count"`
		DirectMessages []messagePayload `json:"direct_messages"`
	}
	if err := c.get(ctx, "/direct_messages", params, "fetch direct messages", &payload); err != nil {
		return nil, err
	}
	return payload.DirectMessages, nil
}

// filterKeyword keeps messages containing the keyword plus the
// requested amount of surrounding context, preserving order.
func filterKeyword(msgs []core.Message, keyword string, before, after int) []core.Message {
	if keyword == "" {
		return msgs
	}

	keep := make([]bool, len(msgs))
	for i, m := range msgs {
		if !strings.Contains(strings.ToLower(m.Text), strings.ToLower(keyword)) {
			continue
		}
		lo := i - before
		if lo < 0 {
			lo = 0
		}
		hi := i + after
		if hi >= len(msgs) {
			hi = len(msgs) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	out := msgs[:0:0]
	for i, m := range msgs {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out
}
