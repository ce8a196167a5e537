package notify

import (
	"io"
	"log"
	"testing"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/config"
)

func TestFromConfig(t *testing.T) {
	lg := log.New(io.Discard, "", 0)

	sinks, closeAll := FromConfig(&config.Config{}, lg)
	closeAll()
	if len(sinks) != 0 {
		t.Errorf("empty config gave %d sinks", len(sinks))
	}

	sinks, closeAll = FromConfig(&config.Config{RedisURL: "redis://localhost:6379/0", RedisProgressChannel: "test:progress"}, lg)
	defer closeAll()
	if len(sinks) != 1 {
		t.Fatalf("redis config gave %d sinks, want 1", len(sinks))
	}
	if rs, ok := sinks[0].(*RedisSink); !ok || rs.Channel != "test:progress" {
		t.Errorf("sink = %#v", sinks[0])
	}

	sinks, closeAll = FromConfig(&config.Config{RedisURL: "::not a url"}, lg)
	defer closeAll()
	if len(sinks) != 0 {
		t.Errorf("bad redis url gave %d sinks", len(sinks))
	}
}
