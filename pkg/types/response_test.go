package types

import (
	"encoding/json"
	"testing"
)

func TestStatusFlagAcceptsMixedShapes(t *testing.T) {
	cases := map[string]bool{
		`{"status":true}`:      true,
		`{"status":false}`:     false,
		`{"status":"success"}`: true,
		`{"status":"error"}`:   false,
		`{"status":1}`:         true,
		`{"status":null}`:      false,
		`{}`:                   false,
	}
	for raw, want := range cases {
		var env RemoteEnvelope[json.RawMessage]
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if bool(env.Status) != want {
			t.Fatalf("%s: expected %v got %v", raw, want, env.Status)
		}
	}
}

func TestRemoteErrorBodyBestMessage(t *testing.T) {
	var body RemoteErrorBody
	if err := json.Unmarshal([]byte(`{"errors":{"kode_produk":["Kode produk sudah digunakan"]}}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := body.BestMessage(); got != "Kode produk sudah digunakan" {
		t.Fatalf("unexpected message %q", got)
	}
	if fields := body.FieldErrors(); len(fields["kode_produk"]) != 1 {
		t.Fatalf("unexpected fields %+v", fields)
	}

	body = RemoteErrorBody{Message: " ", Error: "Unauthenticated."}
	if got := body.BestMessage(); got != "Unauthenticated." {
		t.Fatalf("expected error field fallback, got %q", got)
	}
}
