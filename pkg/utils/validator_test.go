package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		cnpj  string
		valid bool
	}{
		{"65035552000180", true},
		{"65.035.552/0001-80", true},
		{"65035552000181", false},
		{"6503555200018", false},
		{"11111111111111", false},
		{"65O35552000180", false},
	}

	for _, tt := range tests {
		t.Run(tt.cnpj, func(t *testing.T) {
			err := ValidateCNPJ(tt.cnpj)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseCutoffDate(t *testing.T) {
	d, err := ParseCutoffDate(" 31/05/2024 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31", d.Format("2006-01-02"))

	d, err = ParseCutoffDate("2024-05-31")
	require.NoError(t, err)
	assert.Equal(t, 31, d.Day())

	_, err = ParseCutoffDate("05/31/2024")
	assert.Error(t, err)
}
