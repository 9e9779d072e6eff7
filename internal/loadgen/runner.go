package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type leaderboardResponse struct {
	GameID      string `json:"gameId"`
	Leaderboard []struct {
		UserID string `json:"userId"`
		Score  int64  `json:"score"`
	} `json:"leaderboard"`
}

// Run executes one load cycle: generate updates, submit them with a
// worker pool, then read back every game's board and check the ordering
// contract (score descending, player ID ascending on ties).
func Run(ctx context.Context, cfg *Config) error {
	start := time.Now()
	stats := &Stats{}

	updates := generateUpdates(cfg, stats)
	log.Printf("submitting %d updates across %d games with %d workers", len(updates), cfg.Games, cfg.Workers)

	client := &http.Client{Timeout: cfg.Timeout}

	var submitted, successful, failed int64
	updateChan := make(chan update, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range updateChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				if err := submitUpdate(ctx, client, cfg, u); err != nil {
					atomic.AddInt64(&failed, 1)
					if cfg.Verbose {
						log.Printf("update failed: %v", err)
					}
					continue
				}
				atomic.AddInt64(&successful, 1)
			}
		}()
	}

	go func() {
		defer close(updateChan)
		for _, u := range updates {
			select {
			case <-ctx.Done():
				return
			case updateChan <- u:
			}
		}
	}()
	wg.Wait()

	stats.UpdatesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.UpdatesSuccessful = int(atomic.LoadInt64(&successful))
	stats.UpdatesFailed = int(atomic.LoadInt64(&failed))

	verifyBoards(ctx, client, cfg, updates, stats)

	stats.Elapsed = time.Since(start)
	log.Printf("run complete: submitted=%d ok=%d failed=%d boards=%d orderingErrors=%d elapsed=%s",
		stats.UpdatesSubmitted, stats.UpdatesSuccessful, stats.UpdatesFailed,
		stats.BoardsVerified, stats.OrderingErrors, stats.Elapsed)

	if stats.UpdatesFailed > 0 || stats.OrderingErrors > 0 {
		return fmt.Errorf("run finished with %d failed updates and %d ordering errors",
			stats.UpdatesFailed, stats.OrderingErrors)
	}
	return nil
}

func submitUpdate(ctx context.Context, client *http.Client, cfg *Config, u update) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint(cfg.BaseURL), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d for %s", resp.StatusCode, u.GameID)
	}
	return nil
}

// verifyBoards fetches every game touched by the run and checks the
// returned ordering.
func verifyBoards(ctx context.Context, client *http.Client, cfg *Config, updates []update, stats *Stats) {
	seen := make(map[string]struct{})
	for _, u := range updates {
		if _, ok := seen[u.GameID]; ok {
			continue
		}
		seen[u.GameID] = struct{}{}

		board, err := fetchBoard(ctx, client, cfg, u.GameID)
		if err != nil {
			log.Printf("board fetch failed for %s: %v", u.GameID, err)
			stats.OrderingErrors++
			continue
		}
		stats.BoardsVerified++

		for i := 1; i < len(board.Leaderboard); i++ {
			prev, cur := board.Leaderboard[i-1], board.Leaderboard[i]
			ordered := prev.Score > cur.Score ||
				(prev.Score == cur.Score && prev.UserID < cur.UserID)
			if !ordered {
				log.Printf("ordering violation in %s at position %d", u.GameID, i)
				stats.OrderingErrors++
			}
		}
	}
}

func fetchBoard(ctx context.Context, client *http.Client, cfg *Config, gameID string) (*leaderboardResponse, error) {
	url := fmt.Sprintf("%s/v1/leaderboard/%s?limit=%d", cfg.BaseURL, gameID, cfg.TopN)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var board leaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &board, nil
}
