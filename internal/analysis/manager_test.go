package analysis

import (
	"errors"
	"testing"

	"mcore/internal/iir"
)

func TestManagerCachesByKey(t *testing.T) {
	mgr := NewManager()
	calls := 0
	pass := func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		calls++
		return calls, nil
	}
	fn := &iir.ProgFunction{Name: "f"}
	body := iir.NewSeq()

	v1, err := mgr.Request("p", pass, fn, body, "f64")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	v2, err := mgr.Request("p", pass, fn, body, "f64")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if v1 != v2 {
		t.Fatalf("Request returned distinct values for the same key: %v != %v", v1, v2)
	}
	if calls != 1 {
		t.Fatalf("pass ran %d times, want 1 (second Request should hit the cache)", calls)
	}
}

func TestManagerDistinguishesArgTypeString(t *testing.T) {
	mgr := NewManager()
	calls := 0
	pass := func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		calls++
		return argTypeString, nil
	}
	fn := &iir.ProgFunction{Name: "f"}
	body := iir.NewSeq()

	mgr.Request("p", pass, fn, body, "f64")
	mgr.Request("p", pass, fn, body, "i64")
	if calls != 2 {
		t.Fatalf("pass ran %d times for distinct argTypeStrings, want 2", calls)
	}
}

func TestManagerBreaksRecursionCycle(t *testing.T) {
	mgr := NewManager()
	fn := &iir.ProgFunction{Name: "f"}
	body := iir.NewSeq()

	var pass PassFunc
	pass = func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		if returnBottom {
			return "bottom", nil
		}
		// Recurse into the exact same key: the manager must detect this
		// and hand back bottom instead of recursing forever.
		return mgr.Request("p", pass, fn, body, argTypeString)
	}

	got, err := mgr.Request("p", pass, fn, body, "f64")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if got != "bottom" {
		t.Fatalf("Request on a recursive pass = %v, want the cycle-broken bottom value", got)
	}
}

func TestManagerDiscardsCacheOnError(t *testing.T) {
	mgr := NewManager()
	fn := &iir.ProgFunction{Name: "f"}
	body := iir.NewSeq()
	failing := func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		return nil, errors.New("boom")
	}
	if _, err := mgr.Request("p", failing, fn, body, ""); err == nil {
		t.Fatalf("Request should propagate the pass's error")
	}

	calls := 0
	succeeding := func(fn *iir.ProgFunction, body *iir.Seq, argTypeString string, returnBottom bool) (interface{}, error) {
		calls++
		return "ok", nil
	}
	if _, err := mgr.Request("p", succeeding, fn, body, ""); err != nil {
		t.Fatalf("Request after a prior failure: %v", err)
	}
	if calls != 1 {
		t.Fatalf("pass ran %d times, want exactly 1 (no stale failed cache entry)", calls)
	}
}
