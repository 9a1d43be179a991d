package command

import (
	"net/http"
	"testing"

	"github.com/bornholm/corpus-indexer/internal/core/port"
	"github.com/bornholm/corpus-indexer/internal/core/service"
	"github.com/bornholm/corpus-indexer/pkg/client"
	"github.com/pkg/errors"
)

func TestExitCode(t *testing.T) {
	type testCase struct {
		Name     string
		Err      error
		Expected int
	}

	testCases := []testCase{
		{Name: "invalid request", Err: errors.Wrap(service.ErrInvalidRequest, "bad dates"), Expected: exitInvalidRequest},
		{Name: "corpus not ready", Err: errors.WithStack(port.ErrCorpusNotReady), Expected: exitInvalidRequest},
		{Name: "busy corpus", Err: errors.Wrap(port.ErrCorpusBusy, "demo"), Expected: exitCorpusBusy},
		{Name: "remote busy corpus", Err: errors.WithStack(&client.Error{StatusCode: http.StatusConflict}), Expected: exitCorpusBusy},
		{Name: "remote bad request", Err: errors.WithStack(&client.Error{StatusCode: http.StatusBadRequest}), Expected: exitInvalidRequest},
		{Name: "remote failure", Err: errors.WithStack(&client.Error{StatusCode: http.StatusInternalServerError}), Expected: exitFailure},
		{Name: "other", Err: errors.New("boom"), Expected: exitFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			if e, g := tc.Expected, exitCode(tc.Err); e != g {
				t.Errorf("exitCode(err): expected '%v', got '%v'", e, g)
			}
		})
	}
}
