//go:build !integration

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	t.Run("picks up trace_id and tg_id from the context", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)

		ctx := WithTraceID(context.Background(), "01J5ZX3TRACE")
		ctx = WithTgID(ctx, 42)
		With(ctx, &base).Info().Msg("hello")

		out := buf.String()
		if !strings.Contains(out, `"trace_id":"01J5ZX3TRACE"`) {
			t.Errorf("trace_id missing: %s", out)
		}
		if !strings.Contains(out, `"tg_id":42`) {
			t.Errorf("tg_id missing: %s", out)
		}
	})

	t.Run("bare context adds nothing", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)

		With(context.Background(), &base).Info().Msg("hello")

		out := buf.String()
		if strings.Contains(out, "trace_id") || strings.Contains(out, "tg_id") {
			t.Errorf("unexpected fields: %s", out)
		}
	})
}

func TestRedact(t *testing.T) {
	cases := []struct {
		name string
		in   string
		dev  bool
		want string
	}{
		{"dev passes through", "+998901112233", true, "+998901112233"},
		{"phone is masked", "+998901112233", false, "+998...33"},
		{"short values vanish", "1234", false, "***"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Redact(tc.in, tc.dev); got != tc.want {
				t.Errorf("Redact(%q, %v) = %q, want %q", tc.in, tc.dev, got, tc.want)
			}
		})
	}
}
