package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_CompletionSequence(t *testing.T) {
	var got []bool
	for _, n := range []int64{0, 50, 100} {
		got = append(got, New(Download, n, 100).IsTransferComplete())
	}
	assert.Equal(t, []bool{false, false, true}, got)
}

func TestProgress_TotalRevisedUpward(t *testing.T) {
	assert.True(t, New(Upload, 100, 100).IsTransferComplete())
	assert.False(t, New(Upload, 100, 180).IsTransferComplete())
}

func TestProgress_ZeroTotal(t *testing.T) {
	assert.False(t, New(Upload, 0, 0).IsTransferComplete())
	assert.Zero(t, New(Upload, 0, 0).Fraction())

	f := Final(Upload, 0, 0)
	assert.True(t, f.IsTransferComplete())
	assert.Equal(t, 1.0, f.Fraction())
}

func TestProgress_Fraction(t *testing.T) {
	assert.Equal(t, 0.25, New(Download, 25, 100).Fraction())
	assert.Equal(t, 1.0, New(Download, 150, 100).Fraction())
}

func TestProgress_ClampsNegatives(t *testing.T) {
	p := New(Download, -5, -1)
	assert.Zero(t, p.Transferred())
	assert.Zero(t, p.Transferable())
}

func TestDirectionAndModeStrings(t *testing.T) {
	assert.Equal(t, "download", Download.String())
	assert.Equal(t, "upload", Upload.String())
	assert.Equal(t, "direction(7)", Direction(7).String())
	assert.Equal(t, "current", CurrentChanges.String())
	assert.Equal(t, "indefinitely", IndefinitelyChanges.String())
}
