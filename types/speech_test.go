package types

import (
	"bytes"
	"testing"
)

func TestInputMode(t *testing.T) {
	t.Parallel()

	if !InputModeVoice.Valid() || !InputModeText.Valid() {
		t.Fatalf("known modes must be valid")
	}
	if InputMode("braille").Valid() {
		t.Fatalf("unknown mode must be invalid")
	}
	if InputModeVoice.Opposite() != InputModeText {
		t.Fatalf("opposite of voice is text")
	}
	if InputModeText.Opposite() != InputModeVoice {
		t.Fatalf("opposite of text is voice")
	}
}

func TestAudio_Clone(t *testing.T) {
	t.Parallel()

	orig := &Audio{Data: []byte{1, 2, 3}, Format: "wav", SampleRateHz: 16000}
	dup := orig.Clone()

	if !bytes.Equal(orig.Data, dup.Data) {
		t.Fatalf("clone must copy data")
	}
	dup.Data[0] = 9
	if orig.Data[0] != 1 {
		t.Fatalf("clone must be detached from original")
	}

	var nilAudio *Audio
	if nilAudio.Clone() != nil {
		t.Fatalf("nil clone is nil")
	}
	if nilAudio.Size() != 0 {
		t.Fatalf("nil size is zero")
	}
}
