package wayland

import "testing"

func TestEncodeDecodeString(t *testing.T) {
	cases := []string{"", "a", "hello world", "text/plain;charset=utf-8"}
	for _, s := range cases {
		encoded := encodeString(s)
		decoded, rest, err := decodeString(encoded)
		if err != nil {
			t.Fatalf("decodeString(%q) error: %v", s, err)
		}
		if decoded != s {
			t.Errorf("roundtrip %q -> %q", s, decoded)
		}
		if len(rest) != 0 {
			t.Errorf("roundtrip %q left %d trailing bytes", s, len(rest))
		}
	}
}

func TestEncodeStringPadsToFourBytes(t *testing.T) {
	buf := encodeString("ab") // length field(4) + "ab\0"(3) padded to 4 = 8 total
	if len(buf) != 8 {
		t.Errorf("len(encodeString(\"ab\")) = %d, want 8", len(buf))
	}
}

func TestDecodeStringShortBuffer(t *testing.T) {
	if _, _, err := decodeString([]byte{1, 2}); err == nil {
		t.Error("expected error decoding a too-short buffer")
	}
}

func TestEncodeDecodeUint32(t *testing.T) {
	encoded := encodeUint32(0xdeadbeef)
	v, rest, err := decodeUint32(encoded)
	if err != nil {
		t.Fatalf("decodeUint32: %v", err)
	}
	if v != 0xdeadbeef {
		t.Errorf("decodeUint32 = %#x, want %#x", v, 0xdeadbeef)
	}
	if len(rest) != 0 {
		t.Errorf("decodeUint32 left %d trailing bytes", len(rest))
	}
}

func TestConcat(t *testing.T) {
	got := concat([]byte{1, 2}, []byte{3}, []byte{4, 5})
	want := []byte{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("concat length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("concat[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
