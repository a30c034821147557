package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("gamehub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "game":
		handleGame(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "search":
		handleSearch(ctx, client, *baseURL, args[1:])
	case "events":
		handleEvents(*baseURL, sub)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		password := fs.String("password", "", "admin password")
		_ = fs.Parse(args)

		if *password == "" {
			log.Fatal("password is required")
		}

		payload := map[string]string{"password": *password}
		var resp authResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/token", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: gamehub auth <login|logout>")
	}
}

func handleGame(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "resolve":
		slug := requireSlug(args, "game resolve <slug>")
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/games/"+url.PathEscape(slug), "", nil, &out); err != nil {
			log.Fatalf("resolve failed: %v", err)
		}
		printJSON(out)
	case "peek":
		slug := requireSlug(args, "game peek <slug>")
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/games/"+url.PathEscape(slug)+"/cached", "", nil, &out); err != nil {
			log.Fatalf("peek failed: %v", err)
		}
		printJSON(out)
	case "popular":
		var out map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/games/popular", "", nil, &out); err != nil {
			log.Fatalf("popular failed: %v", err)
		}
		printJSON(out)
	case "invalidate":
		slug := requireSlug(args, "game invalidate <slug>")
		token := mustToken(tokenPath)
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/admin/games/"+url.PathEscape(slug), token, nil, nil); err != nil {
			log.Fatalf("invalidate failed: %v", err)
		}
		fmt.Println("invalidated", slug)
	default:
		log.Fatal("usage: gamehub game <resolve|peek|popular|invalidate>")
	}
}

func handleSearch(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("usage: gamehub search <query>")
	}
	q := url.QueryEscape(strings.Join(args, " "))
	var out map[string]any
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/search?q="+q, "", nil, &out); err != nil {
		log.Fatalf("search failed: %v", err)
	}
	printJSON(out)
}

// handleEvents tails the refresh-event stream.
func handleEvents(baseURL, sub string) {
	if sub != "listen" {
		log.Fatal("usage: gamehub events listen")
	}
	wsURL, err := websocketURL(baseURL, "/ws")
	if err != nil {
		log.Fatalf("events: %v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("connect %s: %v", wsURL, err)
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}
		fmt.Println(string(msg))
	}
}

func requireSlug(args []string, usage string) string {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		log.Fatalf("usage: gamehub %s", usage)
	}
	return args[0]
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.gamehub-token.json"
	}
	return filepath.Join(home, ".gamehub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("gamehub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  game resolve|peek|popular|invalidate")
	fmt.Println("  search <query>")
	fmt.Println("  events listen")
}
