package bot

import (
	"strings"
	"testing"
)

func TestConfirmRoundtrip(t *testing.T) {
	data := encodeConfirm(42, "quarterly report")
	uid, fragment, ok := decodeConfirm(data)
	if !ok {
		t.Fatalf("decodeConfirm(%q) not ok", data)
	}
	if uid != 42 || fragment != "quarterly report" {
		t.Fatalf("got uid=%d fragment=%q", uid, fragment)
	}
}

func TestPageRoundtrip(t *testing.T) {
	data := encodePage(42, 3, "notes")
	uid, page, fragment, ok := decodePage(data)
	if !ok {
		t.Fatalf("decodePage(%q) not ok", data)
	}
	if uid != 42 || page != 3 || fragment != "notes" {
		t.Fatalf("got uid=%d page=%d fragment=%q", uid, page, fragment)
	}
}

func TestMappingRoundtrip(t *testing.T) {
	data := encodeDeliver(-1001234, 567)
	dest, msgID, ok := decodeMapping(cbPrefixDeliver, data)
	if !ok || dest != -1001234 || msgID != 567 {
		t.Fatalf("got dest=%d msgID=%d ok=%v", dest, msgID, ok)
	}
	// A deliver payload must not decode under the remove prefix.
	if _, _, ok := decodeMapping(cbPrefixRemove, data); ok {
		t.Fatal("deliver payload decoded as remove")
	}
}

func TestTruncateFragmentStaysWithinCap(t *testing.T) {
	long := strings.Repeat("файл", 20) // multibyte
	cut := truncateFragment(long)
	if len(cut) > maxFragmentBytes {
		t.Fatalf("truncated fragment is %d bytes", len(cut))
	}
	// Whole runes only; the cut must still be a prefix of the input.
	if !strings.HasPrefix(long, cut) {
		t.Fatalf("cut %q is not a prefix", cut)
	}
	// Encoded payloads stay under the platform's 64-byte callback cap.
	if data := encodeConfirm(9223372036854775807, long); len(data) > 64 {
		t.Fatalf("confirm payload is %d bytes", len(data))
	}
	if data := encodePage(9223372036854775807, 10000, long); len(data) > 64 {
		t.Fatalf("page payload is %d bytes", len(data))
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, data := range []string{"", "cfm", "cfm:abc:x", "pg:1:xx:y", "get:1", "get:a:b"} {
		if _, _, ok := decodeConfirm(data); ok && strings.HasPrefix(data, "cfm") {
			t.Fatalf("decodeConfirm accepted %q", data)
		}
		if _, _, _, ok := decodePage(data); ok {
			t.Fatalf("decodePage accepted %q", data)
		}
		if _, _, ok := decodeMapping(cbPrefixDeliver, data); ok {
			t.Fatalf("decodeMapping accepted %q", data)
		}
	}
}

func TestParseDeepLinkPayload(t *testing.T) {
	dest, msgID, ok := parseDeepLinkPayload("get_-1001234_567")
	if !ok || dest != -1001234 || msgID != 567 {
		t.Fatalf("got dest=%d msgID=%d ok=%v", dest, msgID, ok)
	}
	for _, arg := range []string{"", "hello", "get_", "get_12", "get_a_b"} {
		if _, _, ok := parseDeepLinkPayload(arg); ok {
			t.Fatalf("accepted payload %q", arg)
		}
	}
}
