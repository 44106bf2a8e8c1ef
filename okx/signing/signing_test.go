package signing

import (
	"testing"
	"time"
)

func TestSignTimestamp_GoldenVector(t *testing.T) {
	// HMAC-SHA256("k", "2024-01-01T00:00:00.000ZPOST/orders{\"sz\":\"1\"}") 的 base64
	sig := SignTimestamp("k", "2024-01-01T00:00:00.000Z", "POST", "/orders", `{"sz":"1"}`)
	want := "z6zcz6X51AhPcSDOHbGQRYcXqT88SqZGfDpudPeIIFE="
	if sig != want {
		t.Fatalf("signature mismatch:\n got  %s\n want %s", sig, want)
	}
}

func TestSignTimestamp_MethodUppercased(t *testing.T) {
	a := SignTimestamp("k", "2024-01-01T00:00:00.000Z", "post", "/orders", `{"sz":"1"}`)
	b := SignTimestamp("k", "2024-01-01T00:00:00.000Z", "POST", "/orders", `{"sz":"1"}`)
	if a != b {
		t.Fatalf("lowercase method should canonicalize to uppercase")
	}
}

func TestSignSortedParams_GoldenVector(t *testing.T) {
	params := map[string]string{
		"sz":     "1",
		"instId": "BTC-USDT-SWAP",
		"side":   "buy",
	}
	// hex(HMAC-SHA256("k", "instId=BTC-USDT-SWAP&side=buy&sz=1"))
	sig := SignSortedParams("k", params)
	want := "f2517b23128623ea5e26c249b706084c1404f383882cdacbfecd1fa048aba10d"
	if sig != want {
		t.Fatalf("signature mismatch:\n got  %s\n want %s", sig, want)
	}
}

func TestSignSortedParams_OrderIndependent(t *testing.T) {
	a := SignSortedParams("secret", map[string]string{"b": "2", "a": "1", "c": "3"})
	b := SignSortedParams("secret", map[string]string{"c": "3", "a": "1", "b": "2"})
	if a != b {
		t.Fatalf("sorted-params signature must not depend on map iteration order")
	}
}

func TestTimestampMillis_Format(t *testing.T) {
	ts := TimestampMillis(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if ts != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected timestamp format: %s", ts)
	}
}

func TestHeaders_Complete(t *testing.T) {
	creds := Credentials{APIKey: "key-id", Secret: "k", Passphrase: "pass", Simulated: true}
	h := Headers(creds, "2024-01-01T00:00:00.000Z", "POST", "/orders", `{"sz":"1"}`)

	if h[HeaderAPIKey] != "key-id" {
		t.Fatalf("missing api key header")
	}
	if h[HeaderSign] != "z6zcz6X51AhPcSDOHbGQRYcXqT88SqZGfDpudPeIIFE=" {
		t.Fatalf("unexpected signature: %s", h[HeaderSign])
	}
	if h[HeaderTimestamp] != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("missing timestamp header")
	}
	if h[HeaderPassphrase] != "pass" {
		t.Fatalf("missing passphrase header")
	}
	if h[HeaderSimulated] != "1" {
		t.Fatalf("simulated env requires the demo-trading header")
	}
}
