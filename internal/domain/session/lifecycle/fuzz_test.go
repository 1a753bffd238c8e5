// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"testing"

	"github.com/ManuGH/factorysim/internal/domain/session/model"
)

// FuzzClassifyWorkerExit asserts the core invariant from §8: a graceful exit
// never yields a crash event, and a non-graceful exit always does.
func FuzzClassifyWorkerExit(f *testing.F) {
	f.Add(true, false, false)
	f.Add(false, true, false)
	f.Add(false, false, true)
	f.Fuzz(func(t *testing.T, graceful, heartbeatTimedOut, withErr bool) {
		var err error
		if withErr {
			err = errors.New("boom")
		}
		out := ClassifyWorkerExit(graceful, heartbeatTimedOut, err)
		if graceful && out.Event != EvStop {
			t.Fatalf("graceful exit must classify as EvStop, got %v", out.Event)
		}
		if !graceful && out.Event != EvCrash {
			t.Fatalf("non-graceful exit must classify as EvCrash, got %v", out.Event)
		}
		if out.Reason == model.RNone {
			t.Fatalf("reason must never be RNone")
		}
	})
}
