package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "prod")
	logger.Debug().Msg("скрыто")
	if buf.Len() != 0 {
		t.Fatalf("debug не должен писаться вне dev: %s", buf.String())
	}

	buf.Reset()
	logger = Component(newLogger(&buf, "dev"), "sweeper")
	logger.Debug().Msg("видно")
	if !strings.Contains(buf.String(), `"component":"sweeper"`) {
		t.Fatalf("ожидали поле component, получили %s", buf.String())
	}
}
