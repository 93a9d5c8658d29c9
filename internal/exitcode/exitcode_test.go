package exitcode

import (
	"testing"

	"github.com/paylinehq/adminctl/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"unauthorized", errors.NewStatusError(401, ""), AuthError},
		{"forbidden", errors.NewStatusError(403, ""), AuthError},
		{"bad token", errors.NewTokenInvalidError("truncated"), AuthError},
		{"network", errors.NewNetworkError(nil), NetworkError},
		{"timeout", errors.NewTimeoutError(nil), NetworkError},
		{"server", errors.NewStatusError(503, ""), NetworkError},
		{"validation", errors.NewStatusError(400, ""), UsageError},
		{"canceled", errors.NewCanceledError(nil), Interrupted},
		{"not found", errors.NewStatusError(404, ""), GeneralError},
		{"plain error", errors.New(errors.ErrCodeConfigInvalid, "bad config"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.want {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
