package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain integer", input: "1234", want: "1234"},
		{name: "comma fraction", input: "12,5", want: "12.5"},
		{name: "thousands and fraction", input: "1.234,56", want: "1234.56"},
		{name: "multiple thousands groups", input: "1.234.567,89", want: "1234567.89"},
		{name: "negative", input: "-1.000,25", want: "-1000.25"},
		{name: "surrounding whitespace", input: " 42,00 ", want: "42"},
		{name: "zero", input: "0", want: "0"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "dot as decimal separator", input: "12.5", wantErr: true},
		{name: "bad thousands group", input: "1.23,45", wantErr: true},
		{name: "trailing comma", input: "12,", wantErr: true},
		{name: "double comma", input: "1,2,3", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDecimalOrZero(t *testing.T) {
	assert.Equal(t, "1234.5", DecimalOrZero("1.234,5").String())
	assert.True(t, DecimalOrZero("").IsZero())
	assert.True(t, DecimalOrZero("not a number").IsZero())
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "S", want: true},
		{input: "N", want: false},
		{input: "s", want: true},
		{input: "n", want: false},
		{input: " S ", want: true},
		{input: "", wantErr: true},
		{input: "Y", wantErr: true},
		{input: "SI", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFlag(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestTrailingFilename(t *testing.T) {
	assert.Equal(t, "foto.jpg", TrailingFilename(`C:\imagenes\articulos\foto.jpg`))
	assert.Equal(t, "foto.jpg", TrailingFilename("/srv/images/foto.jpg"))
	assert.Equal(t, "foto.jpg", TrailingFilename(`C:\mixed/path\foto.jpg`))
	assert.Equal(t, "foto.jpg", TrailingFilename("foto.jpg"))
	assert.Equal(t, "", TrailingFilename(""))
	assert.Equal(t, "", TrailingFilename(`C:\imagenes\`))
}
