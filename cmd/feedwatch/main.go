// Command feedwatch tails the live post feed over websocket and prints each
// snapshot as it arrives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type post struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	AuthorID  string     `json:"authorId"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

func main() {
	host := flag.String("host", "localhost:8480", "ripple server host")
	anonymous := flag.Bool("anonymous", true, "sign in anonymously before connecting")
	flag.Parse()

	token := ""
	if *anonymous {
		t, err := signInAnonymously(*host)
		if err != nil {
			log.Fatalf("Anonymous sign-in failed: %v", err)
		}
		token = t
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws/feed"}
	if token != "" {
		u.RawQuery = "token=" + url.QueryEscape(token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	log.Printf("Watching %s", u.String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			var snapshot []post
			if err := json.Unmarshal(message, &snapshot); err != nil {
				log.Printf("Bad snapshot: %v", err)
				continue
			}
			fmt.Printf("--- snapshot: %d posts ---\n", len(snapshot))
			for _, p := range snapshot {
				author := p.AuthorID
				if len(author) > 6 {
					author = author[:6]
				}
				fmt.Printf("[%s] %s\n", author, p.Text)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func signInAnonymously(host string) (string, error) {
	resp, err := http.Post("http://"+host+"/api/auth/anonymous", "application/json", bytes.NewReader(nil))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Token, nil
}
