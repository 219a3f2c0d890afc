package joypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadReflectsSelectedBankOnly(t *testing.T) {
	s := New()
	s.Press(Right)
	s.Press(A)

	s.Write(0x20) // select directions (bit 4 low)
	assert.Equal(t, uint8(0x0E), s.Read()&0x0F, "direction nibble (Right pressed, active low)")

	s.Write(0x10) // select buttons (bit 5 low)
	assert.Equal(t, uint8(0x0E), s.Read()&0x0F, "button nibble (A pressed, active low)")
}

func TestPressRaisesIRQOnlyOnReleasedToPressedEdgeWhileSelected(t *testing.T) {
	s := New()
	s.Write(0x20) // directions selected

	assert.True(t, s.Press(Up), "Press(Up) while directions selected should raise an edge")
	assert.False(t, s.Press(Up), "Press(Up) while already held should not raise a second edge")

	s.Write(0x10) // buttons selected, directions deselected
	s.Release(Up)
	assert.False(t, s.Press(Down), "Press(Down) while directions bank is not selected should not raise an edge")
}

func TestSetReportsEdgeForNewlyPressedSelectedButtons(t *testing.T) {
	s := New()
	s.Write(0x20) // directions selected
	assert.True(t, s.Set(Right), "Set with a newly pressed, selected button should report an edge")
	assert.False(t, s.Set(Right), "Set with no newly pressed buttons should not report an edge")
	assert.True(t, s.Set(Right|Left), "Set adding another newly pressed selected button should report an edge")
}

func TestWriteOnlyAffectsSelectionBits(t *testing.T) {
	s := New()
	s.Write(0xFF)
	assert.Equal(t, uint8(0x30), s.Read()&0x30, "selection bits")
}
