// Package cnpj valida y normaliza el identificador fiscal de las empresas (CNPJ).
package cnpj

import (
	"fmt"
	"unicode"
)

// pesos del primer y segundo dígito verificador (módulo 11).
var (
	firstWeights  = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Normalize devuelve solo los dígitos del CNPJ ("12.345.678/0001-95" → "12345678000195").
func Normalize(taxID string) string {
	return string(extractDigits(taxID))
}

// Validate valida longitud y dígitos verificadores del CNPJ (con o sin puntuación).
func Validate(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) != 14 {
		return fmt.Errorf("cnpj: debe tener 14 dígitos, se encontraron %d", len(digits))
	}
	if allEqual(digits) {
		return fmt.Errorf("cnpj: secuencia repetida inválida")
	}
	first := checkDigit(digits[:12], firstWeights[:])
	if digits[12] != first {
		return fmt.Errorf("cnpj: primer dígito verificador inválido: esperado %c, recibido %c", first, digits[12])
	}
	second := checkDigit(digits[:13], secondWeights[:])
	if digits[13] != second {
		return fmt.Errorf("cnpj: segundo dígito verificador inválido: esperado %c, recibido %c", second, digits[13])
	}
	return nil
}

func checkDigit(base []byte, weights []int) byte {
	var sum int
	for i, d := range base {
		sum += int(d-'0') * weights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return '0'
	}
	return byte('0' + (11 - remainder))
}

func allEqual(digits []byte) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return out
}
