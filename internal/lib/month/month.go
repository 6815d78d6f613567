// Package month содержит вычисления над календарными месяцами
// для помесячной статистики рассылки.
package month

import (
	"strconv"
	"time"
)

// Key возвращает ключ месяца в формате "YYYY-M" без ведущего нуля у месяца.
func Key(t time.Time) string {
	return strconv.Itoa(t.Year()) + "-" + strconv.Itoa(int(t.Month()))
}

// Start возвращает первое число месяца, в который попадает t, в той же зоне.
func Start(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Trailing возвращает n календарных месяцев, заканчивающихся месяцем now,
// в хронологическом порядке. Каждый элемент — первое число месяца.
// Сдвиг считается от первого числа, поэтому 31 марта минус месяц даёт февраль.
func Trailing(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	first := Start(now)
	out := make([]time.Time, n)
	for i := range n {
		out[i] = first.AddDate(0, i-(n-1), 0)
	}
	return out
}

// TrailingKeys возвращает ключи Key для Trailing(now, n).
func TrailingKeys(now time.Time, n int) []string {
	months := Trailing(now, n)
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = Key(m)
	}
	return keys
}
