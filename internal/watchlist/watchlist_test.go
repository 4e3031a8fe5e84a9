package watchlist

import (
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestNewStateDefaults(t *testing.T) {
	s := New("_USDT")
	if !s.AlertsEnabled() {
		t.Fatalf("expected alerts enabled by default")
	}
	if len(s.Excluded()) != 0 {
		t.Fatalf("expected empty exclusion list")
	}
}

func TestParseGrammar(t *testing.T) {
	cases := []struct {
		text string
		want Command
		ok   bool
	}{
		{text: "/", want: Command{Kind: KindHelp}, ok: true},
		{text: "  중지 ", want: Command{Kind: KindPause}, ok: true},
		{text: "다시실행", want: Command{Kind: KindResume}, ok: true},
		{text: "/감시제거 dmc", want: Command{Kind: KindExclude, Coin: "DMC"}, ok: true},
		{text: "/감시복구 Abc extra", want: Command{Kind: KindUnexclude, Coin: "ABC"}, ok: true},
		{text: "/제외목록", want: Command{Kind: KindListExcluded}, ok: true},
		{text: "/감시제거", ok: false},
		{text: "/status", ok: false},
		{text: "hello", ok: false},
		{text: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.text)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.text, tc.ok, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("%q: expected %+v, got %+v", tc.text, tc.want, got)
		}
	}
}

func TestPauseIdempotent(t *testing.T) {
	s := New("_USDT")
	Apply(s, Command{Kind: KindPause})
	Apply(s, Command{Kind: KindPause})
	if s.AlertsEnabled() {
		t.Fatalf("expected alerts disabled")
	}
	if resp := Apply(s, Command{Kind: KindResume}); !strings.Contains(resp, "재개") {
		t.Fatalf("unexpected resume response %q", resp)
	}
	if !s.AlertsEnabled() {
		t.Fatalf("expected alerts enabled")
	}
}

func TestExcludeRoundTrip(t *testing.T) {
	s := New("_USDT")
	s.Exclude("XYZ")
	before := s.Excluded()

	resp := Apply(s, Command{Kind: KindExclude, Coin: "ABC"})
	if !strings.Contains(resp, "ABC, XYZ") {
		t.Fatalf("expected full list in ack, got %q", resp)
	}
	if !s.IsExcluded("abc") {
		t.Fatalf("expected ABC excluded")
	}
	resp = Apply(s, Command{Kind: KindUnexclude, Coin: "ABC"})
	if !strings.Contains(resp, "ABC 감시 재개됨") {
		t.Fatalf("unexpected unexclude ack %q", resp)
	}
	if !reflect.DeepEqual(before, s.Excluded()) {
		t.Fatalf("expected %v after round trip, got %v", before, s.Excluded())
	}
}

func TestExcludeStripsQuoteSuffix(t *testing.T) {
	s := New("_USDT")
	resp := Apply(s, Command{Kind: KindExclude, Coin: "ABC_USDT"})
	if got := s.Excluded(); !reflect.DeepEqual(got, []string{"ABC"}) {
		t.Fatalf("expected bare ticker stored, got %v", got)
	}
	if !strings.Contains(resp, "🛑 ABC 감시 제외됨") {
		t.Fatalf("expected ack for bare ticker, got %q", resp)
	}
	if !s.IsExcluded("ABC") || !s.IsExcluded("abc_usdt") {
		t.Fatalf("expected ABC excluded under both spellings")
	}
	resp = Apply(s, Command{Kind: KindUnexclude, Coin: "abc_usdt"})
	if !strings.Contains(resp, "ABC 감시 재개됨") {
		t.Fatalf("unexpected unexclude ack %q", resp)
	}
	if len(s.Excluded()) != 0 {
		t.Fatalf("expected empty list, got %v", s.Excluded())
	}
}

func TestUnexcludeAbsentIsNoop(t *testing.T) {
	s := New("_USDT")
	s.Exclude("XYZ")
	resp := Apply(s, Command{Kind: KindUnexclude, Coin: "ABC"})
	if resp == "" || !strings.Contains(resp, "없습니다") {
		t.Fatalf("expected not-in-list ack, got %q", resp)
	}
	if got := s.Excluded(); len(got) != 1 || got[0] != "XYZ" {
		t.Fatalf("expected list unchanged, got %v", got)
	}
}

func TestListExcluded(t *testing.T) {
	s := New("_USDT")
	if resp := Apply(s, Command{Kind: KindListExcluded}); resp != "📋 제외된 코인이 없습니다." {
		t.Fatalf("unexpected empty response %q", resp)
	}
	s.Exclude("b")
	s.Exclude("a")
	if resp := Apply(s, Command{Kind: KindListExcluded}); resp != "📋 제외된 코인 목록:\nA, B" {
		t.Fatalf("unexpected list response %q", resp)
	}
}

func TestHelpListsCommands(t *testing.T) {
	resp := Apply(New("_USDT"), Command{Kind: KindHelp})
	for _, want := range []string{"중지", "다시실행", "/감시제거", "/감시복구", "/제외목록"} {
		if !strings.Contains(resp, want) {
			t.Fatalf("help missing %q", want)
		}
	}
}

func TestBareTicker(t *testing.T) {
	if got := BareTicker("abc_usdt", "_USDT"); got != "ABC" {
		t.Fatalf("expected ABC, got %q", got)
	}
	if got := BareTicker("ABC", "_USDT"); got != "ABC" {
		t.Fatalf("expected ABC, got %q", got)
	}
}

func TestStateConcurrentAccess(t *testing.T) {
	s := New("_USDT")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Exclude("ABC")
			s.SetAlertsEnabled(false)
		}()
		go func() {
			defer wg.Done()
			_ = s.IsExcluded("ABC")
			_ = s.AlertsEnabled()
		}()
	}
	wg.Wait()
	if !s.IsExcluded("ABC") || s.AlertsEnabled() {
		t.Fatalf("unexpected final state")
	}
}
