package ostinato

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	webTimeout = 10 * time.Second
)

type HTTPClient interface {
	Get(string) (*http.Response, error)
}

// Shared HTTP Client
var sharedHTTPClient = &http.Client{
	Timeout: webTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	},
}

// FeedEvent is one interval as it arrives off the wire.
// Exactly one of End or DurationSec should be set; which one
// decides the construction variant, explicitly per event source.
type FeedEvent struct {
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	DurationSec *float64   `json:"durationSec,omitempty"`
	Name        string     `json:"name,omitempty"`
	Value       *float64   `json:"value,omitempty"`
}

// SingleFetchWithClient handles the messy business of the HTTP connection
// and is testable with dependency injection, called by SingleFetch
func SingleFetchWithClient(url string, c HTTPClient) (int, []byte, error) {
	resp, err := c.Get(url)
	if err != nil {
		slog.Error("Fetch Error", slog.Any("Error", err))
		return 0, nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Could not read body", slog.Any("Error", err))
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Close Error", slog.Any("Error", err))
			return
		}
	}()

	return resp.StatusCode, body, err
}

// SingleFetch returns the Response Code, raw byte stream body, and error
// This uses a Shared HTTP Client:
// - to reuse existing endpoint connections
// - to avoid stale connections that eat up OS FDs
func SingleFetch(url string) (int, []byte, error) {
	return SingleFetchWithClient(url, sharedHTTPClient)
}

// FetchEvents retrieves an event feed from a URL or, for anything
// without a scheme, a local file path
func FetchEvents(source string) ([]FeedEvent, error) {
	if !strings.Contains(source, "://") {
		f, err := os.Open(source)
		if err != nil {
			slog.Error("Could not open event feed file", slog.Any("Error", err))
			return nil, err
		}
		defer f.Close()
		return ParseEventFeed(f)
	}

	_, body, err := SingleFetch(source)
	if err != nil {
		return nil, err
	}
	return ParseEventFeed(bytes.NewReader(body))
}

// ParseEventFeed decodes a JSON array of feed events and resolves
// each end instant, rejecting events that carry neither an end nor
// a duration
func ParseEventFeed(reader io.Reader) ([]FeedEvent, error) {
	var events []FeedEvent
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&events); err != nil {
		slog.Error("Problem decoding event feed", slog.Any("Error", err))
		return nil, fmt.Errorf("feed decode error: %w", err)
	}

	for i, ev := range events {
		if ev.Start.IsZero() {
			return nil, fmt.Errorf("feed event %d has no start", i)
		}
		if ev.End == nil && ev.DurationSec == nil {
			return nil, fmt.Errorf("feed event %d has neither end nor duration", i)
		}
	}

	return events, nil
}

// ApplyFeed replaces the chart's event snapshot with feed contents.
// Feeds where every event carries a value drive the colors manually;
// any gap reverts colors to the engine's derived rule.
func (c *Chart) ApplyFeed(events []FeedEvent) error {
	starts := make([]time.Time, 0, len(events))
	ends := make([]time.Time, 0, len(events))
	names := make([]string, 0, len(events))
	values := make([]float64, 0, len(events))
	valued := true

	for i, ev := range events {
		starts = append(starts, ev.Start)
		switch {
		case ev.End != nil:
			ends = append(ends, *ev.End)
		case ev.DurationSec != nil:
			ends = append(ends, ev.Start.Add(time.Duration(*ev.DurationSec*float64(time.Second))))
		default:
			return fmt.Errorf("feed event %d has neither end nor duration", i)
		}
		names = append(names, ev.Name)
		if ev.Value != nil {
			values = append(values, *ev.Value)
		} else {
			valued = false
		}
	}

	c.MU.Lock()
	defer c.MU.Unlock()

	es := NewEventSetFromEndTimes(starts, ends).WithNames(names)
	if err := c.Engine.SetEvents(es); err != nil {
		return err
	}

	// A configured colorer beats per-event feed values
	if c.Colorer != nil {
		return c.recolorLocked(es)
	}
	if valued && len(values) > 0 {
		return c.Engine.SetColorValues(values)
	}
	return c.Engine.SetColorValues(nil)
}

// recolorLocked runs the transformer across the fresh event set.
// Caller holds the chart lock.
func (c *Chart) recolorLocked(es EventSet) error {
	period, err := c.Engine.Period()
	if err != nil {
		return err
	}

	colors := make([]float64, 0, es.Len())
	for _, ev := range es.Events() {
		v, err := c.Colorer.Transform(ev, period)
		if err != nil {
			slog.Error("Transformer failed, reverting to derived colors",
				slog.String("chart", c.ID),
				slog.String("transformer", c.Colorer.Type()),
				slog.Any("Error", err))
			return c.Engine.SetColorValues(nil)
		}
		colors = append(colors, v)
	}
	return c.Engine.SetColorValues(colors)
}

// RefreshFromFeed is the poll entrypoint: fetch, parse, apply
func (c *Chart) RefreshFromFeed() error {
	events, err := FetchEvents(c.URL)
	if err != nil {
		slog.Error("Could not refresh event feed",
			slog.String("chart", c.ID),
			slog.Any("Error", err))
		return err
	}
	return c.ApplyFeed(events)
}
