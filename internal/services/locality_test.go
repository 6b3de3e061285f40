package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLocality(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Rua A, 123, Centro, Curitiba - PR", "Curitiba", true},
		{"Vila Nova/PR", "Vila Nova", true},
		{"CEP: 80000-000", "", false},
		{"Avenida Brasil, 500, Sao Paulo", "Sao Paulo", true},
		{"Rua das Flores, 12, 80000-000", "Rua das Flores", true},
		{"", "", false},
		{"123, 456", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractLocality(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestLocalityOrUnknown(t *testing.T) {
	assert.Equal(t, "Nao informado", LocalityOrUnknown(""))
	assert.Equal(t, "Curitiba", LocalityOrUnknown("Centro, Curitiba - PR"))
}
