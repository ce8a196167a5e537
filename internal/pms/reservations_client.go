// Package pms talks to the property management system's reservation API.
package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/dates"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/normalize"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://hotels.cloudbeds.com/api/v1.2"

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ReservationDetail is the per-reservation pricing used for enrichment.
type ReservationDetail struct {
	ReservationID string
	Status        string
	Channel       string
	Total         *decimal.Decimal
	Breakdown     json.RawMessage
}

// maxResponseBytes caps one response body; a month of reservations for a
// large property stays well below it.
var maxResponseBytes int64 = 32 << 20

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, newError("new_client", KindConfig, 0, errors.New("missing API token"))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}, nil
}

// FetchReservations returns the raw reservations created in [from, to] for one property.
// An empty list is a normal result.
func (c *Client) FetchReservations(ctx context.Context, propertyID string, from, to time.Time) ([]models.RawRecord, error) {
	const op = "getReservations"

	q := url.Values{}
	q.Set("propertyID", propertyID)
	q.Set("resultsFrom", dates.DateOnly(from).Format(dates.Layout))
	q.Set("resultsTo", dates.DateOnly(to).Format(dates.Layout))
	q.Set("includeGuestsDetails", "false")

	data, err := c.get(ctx, op, q)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return []models.RawRecord{}, nil
	}
	if err := decodeNumbers(data, &rows); err != nil {
		return nil, newError(op, KindMalformed, 0, fmt.Errorf("data is not a reservation list: %w", err))
	}

	out := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.RawRecord(row)
		if _, ok := rec.Get(models.FieldPropertyID); !ok {
			rec[models.FieldPropertyID] = propertyID
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchReservationDetail returns pricing and status for a single reservation.
func (c *Client) FetchReservationDetail(ctx context.Context, propertyID, reservationID string) (ReservationDetail, error) {
	const op = "getReservation"

	q := url.Values{}
	q.Set("propertyID", propertyID)
	q.Set("reservationID", reservationID)

	data, err := c.get(ctx, op, q)
	if err != nil {
		return ReservationDetail{}, err
	}

	var row map[string]any
	if err := decodeNumbers(data, &row); err != nil || row == nil {
		return ReservationDetail{}, newError(op, KindMalformed, 0, fmt.Errorf("data is not a reservation object: %v", err))
	}

	d := ReservationDetail{ReservationID: reservationID}
	if s, ok := row["status"].(string); ok {
		d.Status = s
	}
	if s, ok := row["sourceName"].(string); ok {
		d.Channel = s
	}
	if v, ok := row["total"]; ok && v != nil {
		p := normalize.ParsePrice(v)
		d.Total = &p
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		if b, ok := raw["balanceDetailed"]; ok && !bytes.Equal(b, []byte("null")) {
			d.Breakdown = b
		}
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, op string, q url.Values) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/%s?%s", c.BaseURL, op, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, newError(op, KindConfig, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, newError(op, KindTimeout, 0, err)
		}
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(op, statusKind(resp.StatusCode), resp.StatusCode,
			fmt.Errorf("body=%s", truncate(string(body), 300)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newError(op, KindMalformed, resp.StatusCode, fmt.Errorf("decode envelope: %w", err))
	}
	if env.Success == nil {
		return nil, newError(op, KindMalformed, resp.StatusCode, errors.New("response has no success flag"))
	}
	if !*env.Success {
		return nil, newError(op, messageKind(env.Message), resp.StatusCode, errors.New(env.Message))
	}
	return env.Data, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func messageKind(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "token"), strings.Contains(m, "auth"), strings.Contains(m, "access denied"), strings.Contains(m, "permission"):
		return KindAuth
	case strings.Contains(m, "not found"):
		return KindNotFound
	default:
		return KindServer
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
