// Package sku genera códigos de producto terminado:
// tipo(2) + colección(2) + nombre(3) + color(2) + talla.
package sku

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Parts atributos del producto que componen el SKU.
type Parts struct {
	ProductType string
	Collection  string
	Name        string
	Color       string
	Size        string
}

// Base construye el SKU sin sufijo de unicidad, en mayúsculas.
func Base(p Parts) string {
	return strings.ToUpper(
		initialsOrFirstTwo(p.ProductType) +
			initialsOrFirstTwo(p.Collection) +
			firstNLetters(p.Name, 3) +
			initialsOrFirstTwo(p.Color) +
			strings.TrimSpace(p.Size),
	)
}

// Unique agrega -1, -2, ... a base hasta que exists devuelva false.
func Unique(base string, exists func(candidate string) (bool, error)) (string, error) {
	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// Fold elimina acentos y diacríticos: "Añil Ébano" -> "Anil Ebano".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// words devuelve las secuencias de letras ASCII del texto ya normalizado.
func words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool { return !isASCIILetter(r) })
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func firstNLetters(s string, n int) string {
	var b strings.Builder
	for _, r := range Fold(s) {
		if b.Len() == n {
			break
		}
		if isASCIILetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	out := b.String()
	if len(out) < n {
		out += strings.Repeat("X", n-len(out))
	}
	return out
}

// initialsOrFirstTwo: iniciales de las dos primeras palabras, o las dos primeras letras si hay una sola.
func initialsOrFirstTwo(s string) string {
	w := words(s)
	if len(w) >= 2 {
		return strings.ToUpper(w[0][:1] + w[1][:1])
	}
	return firstNLetters(s, 2)
}
