package normalize

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EncodingSampleSize is the number of leading bytes handed to the
// charset detector.
const EncodingSampleSize = 10240

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbackEncodings is the fixed order of candidates tried after the
// detected guess. windows-1251 and cp1251 are aliases of the same
// decoder but both labels are kept so the attempted chain reads the
// same in logs as in the source exports' documentation.
var fallbackEncodings = []string{
	"windows-1251",
	"cp1251",
	"utf-8-sig",
	"utf-8",
	"maccyrillic",
}

// ErrEncodingUndetected reports that no candidate encoding decoded the
// file cleanly.
var ErrEncodingUndetected = fmt.Errorf("no candidate encoding decodes the file")

// DetectEncoding guesses the encoding of a byte sample. The guess is a
// label suitable for decodeAs; an unrecognized charset collapses to
// empty, in which case the caller relies on the fallback chain alone.
func DetectEncoding(sample []byte) string {
	if len(sample) > EncodingSampleSize {
		sample = sample[:EncodingSampleSize]
	}

	if bytes.HasPrefix(sample, utf8BOM) {
		return "utf-8-sig"
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return ""
	}

	return normalizeEncodingLabel(result.Charset)
}

// DecodeBytes converts raw file bytes to UTF-8 text, trying the
// detected encoding first and then the fixed fallback order. It
// returns the decoded text and the label that succeeded.
func DecodeBytes(data []byte) (string, string, error) {
	candidates := make([]string, 0, len(fallbackEncodings)+1)
	if guess := DetectEncoding(data); guess != "" {
		candidates = append(candidates, guess)
	}
	candidates = append(candidates, fallbackEncodings...)

	tried := make(map[string]bool, len(candidates))
	for _, label := range candidates {
		if tried[label] {
			continue
		}
		tried[label] = true

		text, err := decodeAs(data, label)
		if err != nil {
			continue
		}
		return text, label, nil
	}

	return "", "", ErrEncodingUndetected
}

// decodeAs decodes data under a single encoding label. A decode that
// produces replacement runes counts as a failure so the fallback chain
// can move on, mirroring a strict decoder.
func decodeAs(data []byte, label string) (string, error) {
	switch label {
	case "utf-8-sig":
		if !bytes.HasPrefix(data, utf8BOM) {
			return "", fmt.Errorf("missing byte order mark")
		}
		return decodeAs(bytes.TrimPrefix(data, utf8BOM), "utf-8")

	case "utf-8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 sequence")
		}
		return string(data), nil

	case "windows-1251", "cp1251":
		return decodeCharmap(data, charmap.Windows1251)

	case "maccyrillic":
		return decodeCharmap(data, charmap.MacintoshCyrillic)

	default:
		return "", fmt.Errorf("unsupported encoding %q", label)
	}
}

func decodeCharmap(data []byte, cm *charmap.Charmap) (string, error) {
	decoded, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("undecodable byte for %s", cm)
	}
	return string(decoded), nil
}

// normalizeEncodingLabel maps detector charset names onto the labels
// decodeAs understands.
func normalizeEncodingLabel(charset string) string {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return "utf-8"
	case "windows-1251":
		return "windows-1251"
	case "ibm866", "koi8-r", "iso-8859-5":
		// Cyrillic single-byte guesses collapse onto the closest
		// supported decoder; the fallback chain corrects mistakes.
		return "windows-1251"
	case "x-mac-cyrillic", "maccyrillic":
		return "maccyrillic"
	default:
		return ""
	}
}
