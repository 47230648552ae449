package sniffer

import (
	"errors"
	"testing"
)

func box(sizeThenType string, rest ...byte) []byte {
	b := []byte{0x00, 0x00, 0x00, 0x18}
	b = append(b, []byte(sizeThenType)...)
	return append(b, rest...)
}

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want MediaType
		mime string
	}{
		{"mp4", box("ftypisom", 0, 0, 0, 0), TypeMP4, "video/mp4"},
		{"mov", box("ftypqt  ", 0, 0, 0, 0), TypeMOV, "video/quicktime"},
		{"webm", []byte{0x1a, 0x45, 0xdf, 0xa3, 0x00, 0x00}, TypeWEBM, "video/webm"},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}, TypePNG, "image/png"},
	}
	for _, tc := range cases {
		res, err := DetectHead(tc.head)
		if err != nil {
			t.Errorf("%s: DetectHead error: %v", tc.name, err)
			continue
		}
		if res.Type != tc.want || res.MIME != tc.mime {
			t.Errorf("%s: got %s/%s, want %s/%s", tc.name, res.Type, res.MIME, tc.want, tc.mime)
		}
	}
}

func TestDetectHeadMOVBeatsMP4(t *testing.T) {
	// A qt brand is still an ftyp box; it must classify as mov, not mp4.
	res, err := DetectHead(box("ftypqt  ", 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("DetectHead: %v", err)
	}
	if res.Type != TypeMOV {
		t.Fatalf("type = %s, want mov", res.Type)
	}
}

func TestDetectHeadUnknown(t *testing.T) {
	if _, err := DetectHead([]byte{0x01, 0x02, 0x03, 0x04}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
	if _, err := DetectHead(nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("empty: err = %v, want ErrUnknownType", err)
	}
}
