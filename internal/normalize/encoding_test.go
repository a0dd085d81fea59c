package normalize

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func encodeWith(t *testing.T, cm *charmap.Charmap, text string) []byte {
	t.Helper()
	encoded, _, err := transform.Bytes(cm.NewEncoder(), []byte(text))
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return encoded
}

func TestDetectEncoding_BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("city;account")...)

	if got := DetectEncoding(data); got != "utf-8-sig" {
		t.Errorf("DetectEncoding = %q, want %q", got, "utf-8-sig")
	}
}

func TestDecodeBytes_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Североград;ACC-001")...)

	text, label, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if label != "utf-8-sig" {
		t.Errorf("label = %q, want %q", label, "utf-8-sig")
	}
	if text != "Североград;ACC-001" {
		t.Errorf("text = %q, BOM should be stripped", text)
	}
}

func TestDecodeBytes_Windows1251(t *testing.T) {
	want := strings.Repeat("Североград;Показания счётчика природного газа;12345;15.06.2023;150,5;ручной ввод\n", 20)
	data := encodeWith(t, charmap.Windows1251, want)

	text, _, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestDecodeBytes_ASCII(t *testing.T) {
	want := "CityA;ACC-001;12345;15.06.2023;150.5;manual"

	text, _, err := DecodeBytes([]byte(want))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestDecodeAs(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		label   string
		want    string
		wantErr bool
	}{
		{
			name:  "valid utf-8",
			data:  []byte("абв"),
			label: "utf-8",
			want:  "абв",
		},
		{
			name:    "invalid utf-8",
			data:    []byte{0xFF, 0xFE, 0xFD},
			label:   "utf-8",
			wantErr: true,
		},
		{
			name:    "utf-8-sig without byte order mark",
			data:    []byte("abc"),
			label:   "utf-8-sig",
			wantErr: true,
		},
		{
			name:  "cp1251 aliases windows-1251",
			data:  []byte{0xC0, 0xC1, 0xC2},
			label: "cp1251",
			want:  "АБВ",
		},
		{
			name:    "undefined windows-1251 byte",
			data:    []byte{0x98},
			label:   "windows-1251",
			wantErr: true,
		},
		{
			name:    "unsupported label",
			data:    []byte("abc"),
			label:   "latin-1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAs(tt.data, tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeAs(%s) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("decodeAs(%s) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestDecodeBytes_FallbackToMacCyrillic(t *testing.T) {
	// 0x98 is undefined in windows-1251 but valid in maccyrillic, so
	// the chain has to fall through to the later candidate.
	data := []byte{0x98}

	_, label, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if label != "maccyrillic" {
		t.Errorf("label = %q, want %q", label, "maccyrillic")
	}
}

func TestNormalizeEncodingLabel(t *testing.T) {
	tests := []struct {
		charset string
		want    string
	}{
		{"UTF-8", "utf-8"},
		{"windows-1251", "windows-1251"},
		{"KOI8-R", "windows-1251"},
		{"IBM866", "windows-1251"},
		{"ISO-8859-5", "windows-1251"},
		{"x-mac-cyrillic", "maccyrillic"},
		{"Shift_JIS", ""},
	}

	for _, tt := range tests {
		if got := normalizeEncodingLabel(tt.charset); got != tt.want {
			t.Errorf("normalizeEncodingLabel(%q) = %q, want %q", tt.charset, got, tt.want)
		}
	}
}
