package pms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "secret", 2*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestFetchReservations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getReservations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("propertyID") != "p1" || q.Get("resultsFrom") != "2025-01-06" || q.Get("resultsTo") != "2025-01-12" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"success":true,"data":[
			{"reservationID":"R1","dateCreated":"2025-01-06 10:00:00","startDate":"2025-01-10","endDate":"2025-01-12","total":120.5,"status":"confirmed","sourceName":"Website"},
			{"reservationID":2,"propertyID":"p1","dateCreated":"2025-01-07 09:00:00","startDate":"2025-01-07","endDate":"2025-01-08","total":null,"status":"canceled"}
		]}`))
	})

	recs, err := c.FetchReservations(context.Background(), "p1", day("2025-01-06"), day("2025-01-12"))
	if err != nil {
		t.Fatalf("FetchReservations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0][models.FieldPropertyID] != "p1" {
		t.Errorf("property id not filled in: %v", recs[0])
	}
	if n, ok := recs[0][models.FieldPrice].(json.Number); !ok || n.String() != "120.5" {
		t.Errorf("price = %#v, want json.Number 120.5", recs[0][models.FieldPrice])
	}
}

func TestFetchReservationsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	recs, err := c.FetchReservations(context.Background(), "p1", day("2025-01-06"), day("2025-01-12"))
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %d", len(recs))
	}
}

func TestFetchReservationsErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"nope"}`, KindAuth},
		{"forbidden", http.StatusForbidden, ``, KindAuth},
		{"not found", http.StatusNotFound, ``, KindNotFound},
		{"server", http.StatusBadGateway, `oops`, KindServer},
		{"rate limited", http.StatusTooManyRequests, ``, KindServer},
		{"not json", http.StatusOK, `<html>`, KindMalformed},
		{"no success flag", http.StatusOK, `{"data":[]}`, KindMalformed},
		{"data not a list", http.StatusOK, `{"success":true,"data":{"a":1}}`, KindMalformed},
		{"rejected token", http.StatusOK, `{"success":false,"message":"Invalid access token"}`, KindAuth},
		{"upstream failure", http.StatusOK, `{"success":false,"message":"try later"}`, KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.FetchReservations(context.Background(), "p1", day("2025-01-06"), day("2025-01-12"))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf = %s, want %s (%v)", got, tt.want, err)
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Errorf("error is not *pms.Error: %T", err)
			}
		})
	}
}

func TestFetchReservationsOversizedBody(t *testing.T) {
	defer func(n int64) { maxResponseBytes = n }(maxResponseBytes)
	maxResponseBytes = 64

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[`))
		for i := 0; i < 100; i++ {
			w.Write([]byte(`{"reservationID":"R","dateCreated":"2025-01-06 10:00:00"},`))
		}
		w.Write([]byte(`{}]}`))
	})

	_, err := c.FetchReservations(context.Background(), "p1", day("2025-01-06"), day("2025-01-12"))
	if KindOf(err) != KindMalformed {
		t.Fatalf("KindOf = %s, want malformed (%v)", KindOf(err), err)
	}
}

func TestFetchReservationsTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchReservations(ctx, "p1", day("2025-01-06"), day("2025-01-12"))
	if KindOf(err) != KindTimeout {
		t.Fatalf("KindOf = %s, want timeout (%v)", KindOf(err), err)
	}
	if !KindOf(err).Retryable() {
		t.Error("timeouts should be retryable")
	}
}

func TestFetchReservationsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := NewClient(url, "secret", time.Second)
	_, err := c.FetchReservations(context.Background(), "p1", day("2025-01-06"), day("2025-01-12"))
	if KindOf(err) != KindNetwork {
		t.Fatalf("KindOf = %s, want network (%v)", KindOf(err), err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("", " ", time.Second)
	if KindOf(err) != KindConfig {
		t.Fatalf("KindOf = %s, want config", KindOf(err))
	}
	if KindConfig.Retryable() || KindAuth.Retryable() || KindMalformed.Retryable() {
		t.Error("config, auth and malformed must not be retryable")
	}
}

func TestFetchReservationDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getReservation" || r.URL.Query().Get("reservationID") != "R1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"success":true,"data":{"reservationID":"R1","status":"checked_out","sourceName":"Website","total":"1.234,50","balanceDetailed":{"subTotal":1200,"taxesFees":34.5}}}`))
	})

	d, err := c.FetchReservationDetail(context.Background(), "p1", "R1")
	if err != nil {
		t.Fatalf("FetchReservationDetail: %v", err)
	}
	if d.Total == nil || !d.Total.Equal(decimal.RequireFromString("1234.50")) {
		t.Errorf("Total = %v", d.Total)
	}
	if d.Status != "checked_out" || d.Channel != "Website" {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Breakdown) == 0 {
		t.Error("breakdown missing")
	}
}
