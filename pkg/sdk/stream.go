package sdk

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Stream subscribes to a session's server-push event feed. Events arrive on
// the returned channel until the context is cancelled or the server closes
// the stream. Events published before the subscription are never replayed;
// use GetSession/GetAnswers for a snapshot on (re)connect.
func (c *Client) Stream(ctx context.Context, uuid string) (<-chan Event, error) {
	path := fmt.Sprintf("/api/copilot/sessions/%s/stream", uuid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-API-KEY", c.apiKey)

	// Long-lived connection, so bypass the default request timeout
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("[BACKEND]: stream subscription failed: %d", resp.StatusCode)
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var kind string
		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case strings.HasPrefix(line, "event:"):
				kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

				var event Event
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					log.Printf("[SDK]: Skipping malformed stream event: %v", err)
					continue
				}
				if event.Kind == "" {
					event.Kind = kind
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// PollAnswers is the fallback path for clients that cannot hold a stream
// open. It fetches the answer list on a fixed interval and delivers answers
// not seen before, until the context is cancelled.
func (c *Client) PollAnswers(ctx context.Context, uuid string, interval time.Duration) <-chan *Answer {
	answers := make(chan *Answer)

	go func() {
		defer close(answers)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastSeen uint
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			batch, err := c.GetAnswers(ctx, uuid)
			if err != nil {
				log.Printf("[SDK]: Answer poll failed: %v", err)
				continue
			}

			for _, answer := range batch {
				if answer.ID <= lastSeen {
					continue
				}
				lastSeen = answer.ID

				select {
				case answers <- answer:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return answers
}
