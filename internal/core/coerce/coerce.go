// Package coerce содержит чистые функции приведения "сырых" значений
// (строка, число или ничего) к типизированным полям объявления.
// Никогда не паникуют на мусорном входе: не получилось - вернули nil.
package coerce

import (
	"encoding/json"
	"strconv"
	"strings"
)

// numericReplacer чистит числовые строки источника: обычные и неразрывные
// пробелы как разделители тысяч, запятая как десятичный разделитель.
var numericReplacer = strings.NewReplacer(" ", "", " ", "", " ", "", ",", ".")

// ToInt приводит значение к *int. Понимает строки с пробелами-разделителями
// ("1 234" -> 1234), json.Number и float64 из распарсенного JSON.
func ToInt(value interface{}) *int {
	switch v := value.(type) {
	case nil:
		return nil
	case int:
		return &v
	case int64:
		i := int(v)
		return &i
	case float64:
		i := int(v)
		return &i
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n := int(i)
			return &n
		}
		return nil
	case string:
		s := numericReplacer.Replace(strings.TrimSpace(v))
		if s == "" {
			return nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return &i
		}
		return nil
	default:
		return nil
	}
}

// ToFloat приводит значение к *float64. "1 234,5" -> 1234.5.
func ToFloat(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		s := numericReplacer.Replace(strings.TrimSpace(v))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

// ToBool приводит значение к *bool. Отсутствие и пустая строка - это nil
// ("неизвестно", а не false). Строка "true" без учета регистра - true,
// любая другая строка - false; нестроковые значения - по общей истинности.
func ToBool(value interface{}) *bool {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return &v
	case float64:
		b := v != 0
		return &b
	case int:
		b := v != 0
		return &b
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		b := f != 0
		return &b
	case string:
		if v == "" {
			return nil
		}
		b := strings.EqualFold(v, "true")
		return &b
	default:
		return nil
	}
}

// MapEnum ищет точное совпадение в таблице соответствий;
// все, что не нашлось, отображается в значение по умолчанию.
func MapEnum(value string, table map[string]string, fallback string) string {
	if mapped, ok := table[value]; ok {
		return mapped
	}
	return fallback
}

// LetterGrade возвращает класс энергоэффективности: одна буква A-G
// в верхнем регистре. Все остальное - nil.
func LetterGrade(value string) *string {
	s := strings.ToUpper(strings.TrimSpace(value))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'G' {
		return nil
	}
	return &s
}

// FirstInt извлекает целое из первого токена строки ("3 chambres" -> 3).
func FirstInt(value string) *int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	return ToInt(fields[0])
}
