package etlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"configuration", Configuration("missing"), 2},
		{"connection", Connection("dial"), 3},
		{"schema", Schema("create"), 4},
		{"query", Query("select"), 5},
		{"write", Write("merge"), 6},
		{"plain", errors.New("boom"), 1},
		{"wrapped", fmt.Errorf("run: %w", Write("merge")), 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := Connection("connect source", WithCause(cause), WithDetail("host", "db"))

	assert.Equal(t, "connect source: i/o timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindConnection, err.Kind())
	assert.Equal(t, "db", err.Details()["host"])
	assert.True(t, Is(err, KindConnection))
	assert.False(t, Is(nil, KindConnection))
}

func TestNewDefaultsMessage(t *testing.T) {
	assert.Equal(t, "schema error", New(KindSchema, "").Error())
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
}
