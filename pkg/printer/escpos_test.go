package printer

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		cents    int64
		expected string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{1500, "R$ 15,00"},
		{123456, "R$ 1.234,56"},
		{100000000, "R$ 1.000.000,00"},
		{-250, "-R$ 2,50"},
		{math.MinInt64, "-R$ 92.233.720.368.547.758,08"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Money(tt.cents))
		})
	}
}

func TestDocument_KeyValueAndItemLine(t *testing.T) {
	d := NewDocument(20)
	d.KeyValue("Total:", "R$ 9,00")
	d.ItemLine(2, "Hamburguer artesanal duplo", "R$ 30,00")

	lines := bytes.Split(bytes.TrimPrefix(d.Bytes(), []byte{ESC, '@'}), []byte{LF})
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "Total:       R$ 9,00", string(lines[0]))
	assert.Len(t, []rune(string(lines[1])), 20)
	assert.Contains(t, string(lines[1]), "2x Hamb")
	assert.True(t, bytes.HasSuffix(lines[1], []byte("R$ 30,00")))
}

func TestDocument_Wrapped(t *testing.T) {
	d := NewDocument(10)
	d.Wrapped("sem cebola e sem tomate")

	out := string(bytes.TrimPrefix(d.Bytes(), []byte{ESC, '@'}))
	assert.Equal(t, "sem cebola\ne sem\ntomate\n", out)
}

func TestDocument_Banner(t *testing.T) {
	d := NewDocument(0)
	assert.Equal(t, Width58mm, d.Width())

	d.Banner("0042")
	assert.True(t, bytes.Contains(d.Bytes(), []byte{GS, '!', FontHuge}))
	assert.True(t, bytes.Contains(d.Bytes(), []byte("0042\n")))
}

func TestNewPrinterFromConfig(t *testing.T) {
	p, err := NewPrinterFromConfig("none", "", "")
	require.NoError(t, err)
	assert.Equal(t, "none", p.Type())
	assert.NoError(t, p.Print(context.Background(), []byte("x")))
	assert.False(t, p.IsConnected(context.Background()))

	_, err = NewPrinterFromConfig("usb", "", "")
	assert.Error(t, err)

	_, err = NewPrinterFromConfig("network", "", "")
	assert.Error(t, err)

	_, err = NewPrinterFromConfig("bluetooth", "", "")
	assert.Error(t, err)

	p, err = NewPrinterFromConfig("usb", "/nonexistent/lp0", "")
	require.NoError(t, err)
	assert.False(t, p.IsConnected(context.Background()))
	assert.Error(t, p.Print(context.Background(), []byte("x")))
}
