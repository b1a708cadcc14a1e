package marker

import (
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	if got := Key("Friends"); got != "list-name-Friends-time" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestListFromKey(t *testing.T) {
	if name, ok := ListFromKey("list-name-Friends-time"); !ok || name != "Friends" {
		t.Fatalf("unexpected result: %q, %v", name, ok)
	}
	if name, ok := ListFromKey("list-name-with-time-in-it-time"); !ok || name != "with-time-in-it" {
		t.Fatalf("unexpected result: %q, %v", name, ok)
	}
	for _, key := range []string{"", "list-name-time", "other-key", "list-name--time"} {
		if _, ok := ListFromKey(key); ok {
			t.Fatalf("expected rejection for %q", key)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	raw := Encode(&ts, "1234")
	if raw != "2024-01-02T03:04:05Z,1234" {
		t.Fatalf("unexpected wire value: %q", raw)
	}

	gotTS, gotID := Decode(raw)
	if gotID != "1234" {
		t.Fatalf("unexpected id: %q", gotID)
	}
	if gotTS == nil || !gotTS.Equal(ts) {
		t.Fatalf("unexpected timestamp: %v", gotTS)
	}
}

func TestEncode_NilTimestamp(t *testing.T) {
	if got := Encode(nil, "55"); got != ",55" {
		t.Fatalf("unexpected wire value: %q", got)
	}
}

func TestDecode_Defensive(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		wantTS bool
		wantID string
	}{
		{name: "empty", raw: "", wantTS: false, wantID: ""},
		{name: "legacy bare timestamp", raw: "2023-06-01T00:00:00Z", wantTS: true, wantID: ""},
		{name: "garbage without comma", raw: "not-a-time", wantTS: false, wantID: ""},
		{name: "missing second field", raw: "2023-06-01T00:00:00Z,", wantTS: true, wantID: ""},
		{name: "trailing comma", raw: "2023-06-01T00:00:00Z,99,", wantTS: true, wantID: "99"},
		{name: "empty timestamp field", raw: ",42", wantTS: false, wantID: "42"},
		{name: "garbage timestamp field", raw: "whenever,42", wantTS: false, wantID: "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, id := Decode(tc.raw)
			if (ts != nil) != tc.wantTS {
				t.Fatalf("timestamp presence = %v, want %v", ts != nil, tc.wantTS)
			}
			if id != tc.wantID {
				t.Fatalf("id = %q, want %q", id, tc.wantID)
			}
		})
	}
}
