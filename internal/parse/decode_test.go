package parse

import "testing"

func TestDecodeBytesLatin1(t *testing.T) {
	// "Kabelrør" with ø as 0xF8 in ISO-8859-1.
	raw := []byte{'K', 'a', 'b', 'e', 'l', 'r', 0xF8, 'r'}
	got := DecodeBytes(raw, "ISO-8859-1")
	if got != "Kabelrør" {
		t.Fatalf("expected Kabelrør, got %q", got)
	}
}

func TestDecodeBytesWindows1252(t *testing.T) {
	raw := []byte{'5', '0', 0x80} // 0x80 is € in Windows-1252
	got := DecodeBytes(raw, "windows-1252")
	if got != "50€" {
		t.Fatalf("expected 50€, got %q", got)
	}
}

func TestDecodeBytesUnknownLabelFallsBackToUTF8(t *testing.T) {
	got := DecodeBytes([]byte("plain æøå"), "ebcdic-nordic")
	if got != "plain æøå" {
		t.Fatalf("expected utf-8 passthrough, got %q", got)
	}
}

func TestDecodeBytesLabelNormalization(t *testing.T) {
	for _, label := range []string{"latin1", "ISO_8859_1", "iso 8859 1"} {
		if !KnownEncoding(label) {
			t.Fatalf("expected %q to be a known encoding", label)
		}
	}
	if KnownEncoding("utf-99") {
		t.Fatal("expected utf-99 to be unknown")
	}
}
