package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewFeedEmptyURL(t *testing.T) {
	if NewFeed("") != nil {
		t.Fatal("empty url must yield nil feed")
	}
}

func TestFeedLazySubscribe(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(raw) == "ping" {
				conn.WriteMessage(websocket.TextMessage, []byte("pong"))
				continue
			}
			var op struct {
				Op   string `json:"op"`
				Args []struct {
					Channel string `json:"channel"`
					InstID  string `json:"instId"`
				} `json:"args"`
			}
			if json.Unmarshal(raw, &op) == nil && op.Op == "subscribe" {
				conn.WriteMessage(websocket.TextMessage,
					[]byte(`{"arg":{"channel":"tickers","instId":"`+op.Args[0].InstID+`"},"data":[{"instId":"`+op.Args[0].InstID+`","last":"64000","ts":"1"}]}`))
			}
		}
	}))
	defer srv.Close()

	f := NewFeed("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	// 第一次查询未命中，但注册了订阅
	if _, ok := f.Latest("BTC-USDT-SWAP"); ok {
		t.Fatal("first lookup must miss")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if tk, ok := f.Latest("BTC-USDT-SWAP"); ok {
			if tk.Last != "64000" {
				t.Fatalf("ticker got=%+v", tk)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pushed ticker never reached the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
