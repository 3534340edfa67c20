package model

import (
	"testing"
	"time"
)

func TestClassifyAliases(t *testing.T) {
	starts := []string{"race.vsc_deployed", "vscDeployed", "vsc_deployed", "vsc_started", "VSC_DEPLOYED"}
	for _, s := range starts {
		if Classify(s) != KindStart {
			t.Errorf("%q not classified as start", s)
		}
	}
	ends := []string{"race.vsc_retracted", "vsc_Withdrawn", "vsc_withdrawn", "vscEnded", "vsc_ended", "VSC_WITHDRAWN"}
	for _, e := range ends {
		if Classify(e) != KindEnd {
			t.Errorf("%q not classified as end", e)
		}
	}
	for _, u := range []string{"foo", "Race.vsc_deployed", "VSC_deployed", ""} {
		if Classify(u) != KindUnknown {
			t.Errorf("%q unexpectedly classified", u)
		}
	}
}

func TestDecodeDurationLocations(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		payload string
		want    time.Duration
	}{
		{"nested", `{"event_type":"vsc_deployed","event":{"data":{"duration":30}}}`, 30 * time.Second},
		{"root_data", `{"event_type":"vsc_deployed","data":{"duration":45}}`, 45 * time.Second},
		{"string_number", `{"event_type":"vsc_deployed","data":{"duration":"15"}}`, 15 * time.Second},
		{"absent", `{"event_type":"vsc_deployed"}`, DefaultWindow},
		{"garbage", `{"event_type":"vsc_deployed","data":{"duration":"soon"}}`, DefaultWindow},
		{"nested_wins", `{"event_type":"vsc_deployed","event":{"data":{"duration":10}},"data":{"duration":99}}`, 10 * time.Second},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev, err := Decode([]byte(c.payload), now)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ev.Duration != c.want {
				t.Fatalf("duration %v, want %v", ev.Duration, c.want)
			}
			if ev.Kind != KindStart {
				t.Fatalf("kind %v", ev.Kind)
			}
		})
	}
}

func TestDecodeTypeFallback(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"vsc_withdrawn"}`), time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != KindEnd || ev.Type != "vsc_withdrawn" {
		t.Fatalf("fallback classification failed: %#v", ev)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("not json"), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}
