package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

func progress(states ...orchestrator.State) orchestrator.Progress {
	p := orchestrator.Progress{BatchID: "b1", Total: len(states)}
	for i, st := range states {
		it := orchestrator.Item{PropertyID: string(rune('a' + i)), Name: string(rune('A' + i)), State: st}
		if st == orchestrator.StateError {
			it.Error = "auth failed"
		}
		if st != orchestrator.StatePending {
			p.Current = i + 1
		}
		p.Items = append(p.Items, it)
	}
	return p
}

func TestLogSinkReportsEachItemOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(log.New(&buf, "", 0))

	s.OnProgress(progress(orchestrator.StateLoading, orchestrator.StatePending))
	s.OnProgress(progress(orchestrator.StateSuccess, orchestrator.StatePending))
	s.OnProgress(progress(orchestrator.StateSuccess, orchestrator.StateLoading))
	s.OnProgress(progress(orchestrator.StateSuccess, orchestrator.StateError))
	s.OnSummary(orchestrator.Summary{SuccessCount: 1, ErrorCount: 1})

	out := buf.String()
	if strings.Count(out, "✅ A") != 1 || strings.Count(out, "❌ B: auth failed") != 1 {
		t.Errorf("log output:\n%s", out)
	}
	if !strings.Contains(out, "1 succeeded, 1 failed") {
		t.Errorf("summary missing:\n%s", out)
	}
}

type fakeBot struct {
	texts []string
	err   error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.texts = append(b.texts, m.Text)
	}
	return tgbotapi.Message{}, b.err
}

func TestTelegramSink(t *testing.T) {
	bot := &fakeBot{}
	s := NewTelegramSinkWithSender(bot, 42, nil)

	s.OnProgress(progress(orchestrator.StateSuccess, orchestrator.StateError))
	s.OnProgress(progress(orchestrator.StateSuccess, orchestrator.StateError))
	s.OnSummary(orchestrator.Summary{
		SuccessCount: 1,
		ErrorCount:   1,
		Items: []orchestrator.Item{
			{PropertyID: "a", State: orchestrator.StateSuccess},
			{PropertyID: "b", State: orchestrator.StateError},
		},
	})

	if len(bot.texts) != 3 {
		t.Fatalf("messages = %v", bot.texts)
	}
	if !strings.Contains(bot.texts[2], "1 succeeded, 1 failed") || !strings.Contains(bot.texts[2], "Retry: b") {
		t.Errorf("summary message = %q", bot.texts[2])
	}
}

func TestTelegramSinkSendErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s := NewTelegramSinkWithSender(&fakeBot{err: errors.New("blocked")}, 42, log.New(&buf, "", 0))
	s.OnSummary(orchestrator.Summary{})
	if !strings.Contains(buf.String(), "blocked") {
		t.Errorf("log = %q", buf.String())
	}
}

type fakeRedis struct {
	published [][]byte
	last      []byte
	key       string
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.published = append(f.published, message.([]byte))
	return redis.NewIntCmd(ctx)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.key = key
	f.last = value.([]byte)
	return redis.NewStatusCmd(ctx)
}

func TestRedisSink(t *testing.T) {
	fr := &fakeRedis{}
	s := NewRedisSinkWithClient(fr, "progress", nil)

	s.OnProgress(progress(orchestrator.StateLoading))
	s.OnSummary(orchestrator.Summary{SuccessCount: 1})

	if len(fr.published) != 2 || fr.key != "progress:last" {
		t.Fatalf("published=%d key=%q", len(fr.published), fr.key)
	}

	var ev Event
	if err := json.Unmarshal(fr.last, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "summary" || ev.Summary == nil || ev.Summary.SuccessCount != 1 {
		t.Errorf("last event = %+v", ev)
	}
}
