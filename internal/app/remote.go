package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ExchangeRecord is one persisted prompt/response pair as the remote history
// store returns it.
type ExchangeRecord struct {
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ExchangeStore talks to the remote history and persistence endpoints. Both
// carry the same opaque credential; the store never inspects it.
type ExchangeStore struct {
	Credential string
	HistoryURL string
	PersistURL string
	HTTP       *http.Client
}

func NewExchangeStore(credential, historyURL, persistURL string) *ExchangeStore {
	return &ExchangeStore{
		Credential: credential,
		HistoryURL: historyURL,
		PersistURL: persistURL,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}
}

// History fetches the ordered prior exchanges for the current user.
func (s *ExchangeStore) History(ctx context.Context) ([]ExchangeRecord, error) {
	if s.HistoryURL == "" || s.HistoryURL == "mock://" {
		return nil, nil
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.HistoryURL, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(request)

	resp, err := s.HTTP.Do(request)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("history api error: status %d, response: %s", resp.StatusCode, string(bodyBytes))
	}

	var records []ExchangeRecord
	if err := json.Unmarshal(bodyBytes, &records); err != nil {
		return nil, fmt.Errorf("malformed history response: %w", err)
	}
	return records, nil
}

// Save persists one completed exchange. The response body is not inspected
// beyond the status code.
func (s *ExchangeStore) Save(ctx context.Context, prompt, response string) error {
	if s.PersistURL == "" || s.PersistURL == "mock://" {
		return nil
	}
	payload, err := json.Marshal(map[string]string{
		"prompt":   prompt,
		"response": response,
	})
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.PersistURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	s.authorize(request)

	resp, err := s.HTTP.Do(request)
	if err != nil {
		return fmt.Errorf("persist request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("persist api error: status %d", resp.StatusCode)
	}
	return nil
}

func (s *ExchangeStore) authorize(request *http.Request) {
	if s.Credential != "" {
		request.Header.Set("Authorization", "Bearer "+s.Credential)
	}
}

// ExpandRecords flattens remote records into transcript messages: each record
// becomes a user message followed by a bot message, both stamped with the
// record's timestamp, in record order.
func ExpandRecords(records []ExchangeRecord) []Message {
	out := make([]Message, 0, len(records)*2)
	for _, r := range records {
		out = append(out,
			Message{Text: r.Prompt, IsUser: true, Timestamp: r.Timestamp},
			Message{Text: r.Response, IsUser: false, Timestamp: r.Timestamp},
		)
	}
	return out
}
