package sku

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase_PatronCompleto(t *testing.T) {
	got := Base(Parts{
		ProductType: "Kurta",
		Collection:  "Ember Bloom",
		Name:        "Nerina",
		Color:       "Rose Wood",
		Size:        "1",
	})
	assert.Equal(t, "KUEBNERRW1", got)
}

func TestBase_RellenaConX(t *testing.T) {
	got := Base(Parts{Name: "Al"})
	assert.Equal(t, "XXXXALXXX", got)
}

func TestBase_PliegaAcentos(t *testing.T) {
	got := Base(Parts{ProductType: "Túnica", Collection: "Añil", Name: "Élan", Color: "Café", Size: "m"})
	assert.Equal(t, "TUANELACAM", got)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "Anil Ebano", Fold("Añil Ébano"))
	assert.Equal(t, "plain", Fold("plain"))
}

func TestUnique_AgregaSufijo(t *testing.T) {
	taken := map[string]bool{"ABC": true, "ABC-1": true}
	got, err := Unique("ABC", func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "ABC-2", got)
}

func TestUnique_PropagaError(t *testing.T) {
	boom := errors.New("db caída")
	_, err := Unique("ABC", func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}
