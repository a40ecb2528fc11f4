package mode

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for _, m := range All {
		got, err := Parse(m.String())
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", m.String(), err)
		}
		if got != m {
			t.Errorf("Parse(%q) = %v, want %v", m.String(), got, m)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("zeppelin"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestPartition(t *testing.T) {
	if len(Hinterland)+len(Maritime) != Count {
		t.Fatalf("partition does not cover all %d modes", Count)
	}
	for _, m := range Hinterland {
		if m.IsMaritime() {
			t.Errorf("%v classified wrongly", m)
		}
	}
	for _, m := range Maritime {
		if !m.IsMaritime() {
			t.Errorf("%v classified wrongly", m)
		}
	}
}

func TestModeAsJSONKey(t *testing.T) {
	in := map[Mode]float64{Feeder: 0.5, DeepSeaVessel: 0.5}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"deep_sea_vessel":0.5,"feeder":0.5}`; string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var out map[Mode]float64
	if err := json.Unmarshal([]byte(`{"barge":1}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out[Barge] != 1 {
		t.Fatalf("expected barge key, got %v", out)
	}

	if err := json.Unmarshal([]byte(`{"rocket":1}`), &out); err == nil {
		t.Fatal("expected error for unknown mode key")
	}
}
