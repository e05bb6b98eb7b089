package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type teamResp struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Overall float64 `json:"overall"`
	Summary string  `json:"summary"`
	Rank    int     `json:"rank,omitempty"`
}

type reportResp struct {
	ReportID string `json:"report_id"`
	Path     string `json:"path"`
	Queued   bool   `json:"queued"`
}

type client struct {
	http  *http.Client
	base  string
	token string
}

func main() {
	base := envOr("API_BASE_URL", "http://localhost:8000")
	token := envOr("API_TOKEN", "dev-secret-token")

	baseFlag := flag.String("base", base, "API base URL (e.g., http://localhost:8000)")
	tokenFlag := flag.String("token", token, "API token for staff endpoints")
	cleanup := flag.Bool("cleanup", true, "Remove the smoke team at the end")
	flag.Parse()

	c := &client{http: &http.Client{Timeout: 12 * time.Second}, base: *baseFlag, token: *tokenFlag}
	name := fmt.Sprintf("Smoke Testers %d", time.Now().Unix())

	// 1) Register as a competitor; the server picks the id
	var created teamResp
	body := map[string]any{"name": name, "university": "Smoke University", "category": "Cybersecurity"}
	if err := c.send(http.MethodPost, "/teams", "Competitor", body, &created); err != nil {
		fatalf("register team: %v", err)
	}
	fmt.Printf("✅ Registered team: id=%d name=%q\n", created.ID, created.Name)

	// 2) Duplicate registration must be refused
	if err := c.send(http.MethodPost, "/teams", "Competitor", body, nil); err == nil {
		fatalf("duplicate registration was accepted")
	}
	fmt.Println("✅ Duplicate registration rejected")

	// 3) Judge scores the team
	var scored teamResp
	path := fmt.Sprintf("/teams/%d/scores", created.ID)
	if err := c.send(http.MethodPut, path, "Judge", map[string]any{"scores": []int{5, 4, 3, 5}}, &scored); err != nil {
		fatalf("score team: %v", err)
	}
	fmt.Printf("✅ Scored: %s\n", scored.Summary)
	if scored.Overall != 4.2 {
		fatalf("expected overall 4.20, got %.2f", scored.Overall)
	}

	// 4) Leaderboard contains the team
	var board []teamResp
	if err := c.send(http.MethodGet, "/leaderboard?category=Cybersecurity", "Public", nil, &board); err != nil {
		fatalf("leaderboard: %v", err)
	}
	rank := 0
	for _, t := range board {
		if t.ID == created.ID {
			rank = t.Rank
		}
	}
	if rank == 0 {
		fatalf("team %d missing from leaderboard", created.ID)
	}
	fmt.Printf("✅ Leaderboard rank: %d of %d\n", rank, len(board))

	// 5) Stats
	var stats map[string]any
	if err := c.send(http.MethodGet, "/stats", "Public", nil, &stats); err != nil {
		fatalf("stats: %v", err)
	}
	fmt.Printf("✅ Stats: %s\n", compactJSON(stats))

	// 6) Judges may not save reports, organizers may
	if err := c.send(http.MethodPost, "/reports", "Judge", nil, nil); err == nil {
		fatalf("judge was allowed to save a report")
	}
	var rep reportResp
	if err := c.send(http.MethodPost, "/reports", "Organizer", nil, &rep); err != nil {
		fatalf("save report: %v", err)
	}
	fmt.Printf("✅ Report saved: id=%s path=%s queued=%t\n", rep.ReportID, rep.Path, rep.Queued)

	if *cleanup {
		if err := c.send(http.MethodDelete, fmt.Sprintf("/teams/%d", created.ID), "Organizer", nil, nil); err != nil {
			fatalf("remove team: %v", err)
		}
		fmt.Println("✅ Removed smoke team")
	}

	fmt.Printf("🎉 Smoke run OK. TeamID=%d\n", created.ID)
}

// --- helpers ---

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (c *client) send(method, path, role string, body any, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	url := c.base + path
	req, _ := http.NewRequestWithContext(ctx, method, url, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hackathon-Role", role)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s %s -> %d: %s", method, url, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func compactJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}
