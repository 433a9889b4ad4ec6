package groupme

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/you/groupme-archive/internal/core"
)

type groupPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Messages    struct {
		LastMessageCreatedAt int64 `json:"last_message_created_at"`
	} `json:"messages"`
}

type dmPayload struct {
	OtherUser struct {
		ID        json.Number `json:"id"`
		Name      string      `json:"name"`
		AvatarURL string      `json:"avatar_url"`
	} `json:"other_user"`
	LastMessage struct {
		CreatedAt int64 `json:"created_at"`
	} `json:"last_message"`
}

func (g groupPayload) chat() core.Chat {
	return core.Chat{
		ID:          g.ID,
		Name:        g.Name,
		IsGroup:     true,
		ImageURL:    g.ImageURL,
		Description: g.Description,
		LastUsed:    time.Unix(g.Messages.LastMessageCreatedAt, 0).UTC(),
	}
}

func (d dmPayload) chat() core.Chat {
	return core.Chat{
		ID:          d.OtherUser.ID.String(),
		Name:        d.OtherUser.Name,
		IsGroup:     false,
		ImageURL:    d.OtherUser.AvatarURL,
		LastUsed:    time.Unix(d.LastMessage.CreatedAt, 0).UTC(),
		OtherUserID: d.OtherUser.ID.String(),
	}
}

// Chats lists the user's groups and direct messages, most recently used
// first. A non-zero cutoff stops pagination once a chat's last message
// predates it; both listings come back from the API in recency order.
func (c *Client) Chats(ctx context.Context, cutoff time.Time) ([]core.Chat, error) {
	groups, err := c.listGroups(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	dms, err := c.listDirectMessages(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return mergeByRecency(groups, dms), nil
}

func (c *Client) listGroups(ctx context.Context, cutoff time.Time) ([]core.Chat, error) {
	var out []core.Chat
	for page := 1; ; page++ {
		params := url.Values{
			"page":     []string{strconv.Itoa(page)},
			"per_page": []string{strconv.Itoa(pageSize)},
			"omit":     []string{"memberships"},
		}
		var groups []groupPayload
		if err := c.get(ctx, "/groups", params, "fetch groups", &groups); err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			return out, nil
		}
		for _, g := range groups {
			chat := g.chat()
			if !cutoff.IsZero() && chat.LastUsed.Before(cutoff) {
				return out, nil
			}
			out = append(out, chat)
		}
		log.Printf("querier: fetched %d groups...", len(out))
	}
}

func (c *Client) listDirectMessages(ctx context.Context, cutoff time.Time) ([]core.Chat, error) {
	var out []core.Chat
	for page := 1; ; page++ {
		params := url.Values{
			"page":     []string{strconv.Itoa(page)},
			"per_page": []string{strconv.Itoa(pageSize)},
		}
		var dms []dmPayload
		if err := c.get(ctx, "/chats", params, "fetch direct messages", &dms); err != nil {
			return nil, err
		}
		if len(dms) == 0 {
			return out, nil
		}
		for _, d := range dms {
			chat := d.chat()
			if !cutoff.IsZero() && chat.LastUsed.Before(cutoff) {
				return out, nil
			}
			out = append(out, chat)
		}
		log.Printf("querier: fetched %d direct messages...", len(out))
	}
}

// mergeByRecency interleaves two recency-ordered chat lists into one.
func mergeByRecency(a, b []core.Chat) []core.Chat {
	out := make([]core.Chat, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].LastUsed.After(b[j].LastUsed) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// GetChat finds a chat by display name, searching groups or direct
// messages depending on isGroup. A chat the user does not have yields
// a NotFoundError carrying the name.
func (c *Client) GetChat(ctx context.Context, name string, isGroup bool) (core.Chat, error) {
	chats, err := c.Chats(ctx, time.Time{})
	if err != nil {
		return core.Chat{}, err
	}
	for _, chat := range chats {
		if chat.IsGroup == isGroup && chat.Name == name {
			return chat, nil
		}
	}
	return core.Chat{}, &NotFoundError{Name: name}
}
