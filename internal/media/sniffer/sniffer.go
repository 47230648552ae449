package sniffer

import (
	"bytes"
	"errors"
)

type MediaType string

const (
	TypeMP4  MediaType = "mp4"
	TypeWEBM MediaType = "webm"
	TypeMOV  MediaType = "mov"
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

// DetectHead classifies a media payload from its leading bytes. Upload
// content types are always set from this, never from client defaults:
// assets stored with a generic binary type break in-browser playback.
func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	if isMOV(head) {
		return Result{Type: TypeMOV, MIME: "video/quicktime"}, nil
	}
	if isMP4(head) {
		return Result{Type: TypeMP4, MIME: "video/mp4"}, nil
	}
	if isWEBM(head) {
		return Result{Type: TypeWEBM, MIME: "video/webm"}, nil
	}
	if isJPEG(head) {
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	}
	if isPNG(head) {
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	}

	return Result{}, ErrUnknownType
}

// isMP4 checks the ISO BMFF "ftyp" box that starts mp4 family files.
func isMP4(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp"))
}

func isMOV(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[4:8], []byte("ftyp")) &&
		bytes.Equal(head[8:10], []byte("qt"))
}

// isWEBM checks the EBML magic shared by webm/mkv containers.
func isWEBM(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:4], []byte{0x1a, 0x45, 0xdf, 0xa3})
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

// Ext returns the object key extension for a media type.
func (t MediaType) Ext() string {
	return string(t)
}
