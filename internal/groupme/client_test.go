package groupme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/you/groupme-archive/internal/core"
)

func newTestServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *Client) {
	t.Helper()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{"name": "Test User", "email": "t@example.com"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), StaticToken("good-token"), Options{
		BaseURL:           srv.URL,
		HTTPClient:        srv.Client(),
		RequestsPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return srv, client
}

func TestNewRejectsBadToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := New(context.Background(), StaticToken("bad"), Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestChatsMergesByRecency(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_ = json.NewEncoder(w).Encode(map[string]any{"response": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []map[string]any{
			{"id": "g1", "name": "Hiking Club", "image_url": "https://img/g1",
				"messages": map[string]any{"last_message_created_at": 3000}},
			{"id": "g2", "name": "Trivia Team",
				"messages": map[string]any{"last_message_created_at": 1000}},
		}})
	})
	mux.HandleFunc("/chats", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_ = json.NewEncoder(w).Encode(map[string]any{"response": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []map[string]any{
			{"other_user": map[string]any{"id": 42, "name": "Alice", "avatar_url": "https://img/alice"},
				"last_message": map[string]any{"created_at": 2000}},
		}})
	})

	_, client := newTestServer(t, mux)
	chats, err := client.Chats(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("expected 3 chats, got %d", len(chats))
	}
	if chats[0].Name != "Hiking Club" || chats[1].Name != "Alice" || chats[2].Name != "Trivia Team" {
		t.Fatalf("merge order wrong: %s, %s, %s", chats[0].Name, chats[1].Name, chats[2].Name)
	}
	if chats[1].IsGroup || !chats[0].IsGroup {
		t.Fatalf("group/DM flags wrong: %+v", chats[:2])
	}
	if chats[1].OtherUserID != "42" {
		t.Fatalf("expected numeric user id to round-trip, got %q", chats[1].OtherUserID)
	}
}

func TestChatsCutoffStopsPagination(t *testing.T) {
	pageHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		pageHits++
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []map[string]any{
			{"id": "g1", "name": "Recent",
				"messages": map[string]any{"last_message_created_at": 5000}},
			{"id": "g2", "name": "Stale",
				"messages": map[string]any{"last_message_created_at": 10}},
		}})
	})
	mux.HandleFunc("/chats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []any{}})
	})

	_, client := newTestServer(t, mux)
	chats, err := client.Chats(context.Background(), time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if len(chats) != 1 || chats[0].Name != "Recent" {
		t.Fatalf("cutoff should drop stale chats, got %+v", chats)
	}
	if pageHits != 1 {
		t.Fatalf("pagination should stop at the cutoff, hit %d pages", pageHits)
	}
}

func TestGetChatNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []any{}})
	})
	mux.HandleFunc("/chats", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": []any{}})
	})

	_, client := newTestServer(t, mux)
	_, err := client.GetChat(context.Background(), "Nowhere", true)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Name != "Nowhere" {
		t.Fatalf("error should carry the chat name, got %q", notFound.Name)
	}
}

func TestMessagesPaginatesAndAscends(t *testing.T) {
	// Two pages of group history, newest first, then a 304.
	mux := http.NewServeMux()
	mux.HandleFunc("/groups/g1/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("before_id") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
				"count": 4,
				"messages": []map[string]any{
					{"id": "m4", "name": "Bob", "text": "newest", "created_at": 4000},
					{"id": "m3", "name": "Alice", "text": "third", "created_at": 3000},
				},
			}})
		case "m3":
			_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
				"count": 4,
				"messages": []map[string]any{
					{"id": "m2", "name": "Bob", "text": "second", "created_at": 2000},
					{"id": "m1", "name": "Alice", "text": "oldest", "created_at": 1000},
				},
			}})
		default:
			w.WriteHeader(http.StatusNotModified)
		}
	})

	_, client := newTestServer(t, mux)
	chat := chatFixture("g1", "Hiking Club")
	msgs, err := client.Messages(context.Background(), MessageQuery{Chat: &chat})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].SentAt.Before(msgs[i-1].SentAt) {
			t.Fatalf("messages not ascending at %d: %v after %v", i, msgs[i].SentAt, msgs[i-1].SentAt)
		}
	}
	if msgs[0].Text != "oldest" || msgs[3].Text != "newest" {
		t.Fatalf("unexpected order: first=%q last=%q", msgs[0].Text, msgs[3].Text)
	}
	if msgs[0].ChatName != "Hiking Club" || !msgs[0].IsGroup {
		t.Fatalf("chat attribution missing: %+v", msgs[0])
	}
}

func TestMessagesWindowStopsFetch(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/groups/g1/messages", func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
			"count": 2,
			"messages": []map[string]any{
				{"id": "m2", "name": "Bob", "text": "inside", "created_at": 5000},
				{"id": "m1", "name": "Alice", "text": "before window", "created_at": 10},
			},
		}})
	})

	_, client := newTestServer(t, mux)
	chat := chatFixture("g1", "Hiking Club")
	msgs, err := client.Messages(context.Background(), MessageQuery{
		Chat:  &chat,
		Start: time.Unix(1000, 0),
	})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "inside" {
		t.Fatalf("window filter wrong: %+v", msgs)
	}
	if requests != 1 {
		t.Fatalf("fetch should stop once history predates the window, made %d requests", requests)
	}
}

func TestMessagesKeywordContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/groups/g1/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before_id") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		var payload []map[string]any
		for i := 5; i >= 1; i-- {
			text := fmt.Sprintf("message %d", i)
			if i == 3 {
				text = "the magic word"
			}
			payload = append(payload, map[string]any{
				"id": "m" + strconv.Itoa(i), "name": "Alice",
				"text": text, "created_at": 1000 * i,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
			"count": len(payload), "messages": payload,
		}})
	})

	_, client := newTestServer(t, mux)
	chat := chatFixture("g1", "Hiking Club")
	msgs, err := client.Messages(context.Background(), MessageQuery{
		Chat:    &chat,
		Keyword: "MAGIC",
		Before:  1,
		After:   1,
	})
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected match plus one each side, got %d: %+v", len(msgs), msgs)
	}
	if msgs[1].Text != "the magic word" {
		t.Fatalf("match not centered: %+v", msgs)
	}
}

func chatFixture(id, name string) core.Chat {
	return core.Chat{ID: id, Name: name, IsGroup: true}
}
