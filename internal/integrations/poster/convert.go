package poster

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ToCents — totalna konwersja kwoty na grosze. Przyjmuje string z przecinkiem
// lub kropką albo liczbę; śmieci i nie-skończone wartości dają 0, nigdy panic.
func ToCents(v any) int64 {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		// zamień ewentualny przecinek na kropkę
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int64(math.Round(f * 100))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int64(math.Round(x * 100))
	case float32:
		return ToCents(float64(x))
	case int:
		return int64(x) * 100
	case int32:
		return int64(x) * 100
	case int64:
		return x * 100
	default:
		return 0
	}
}

// Sensowne granice epoch-ms: [2000-01-01, 2100-01-01) UTC.
const (
	epochMsMin = 946684800000
	epochMsMax = 4102444800000
)

// ParseTime — totalne parsowanie czasu źródła: epoch w milisekundach
// ("1704164645000") albo "YYYY-MM-DD HH:MM:SS" traktowane jako UTC.
// Cokolwiek innego (w tym "0" i pusty string) daje nil.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return nil
	}
	if isDigits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms < epochMsMin || ms >= epochMsMax {
			return nil
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

// ToISO — jak ParseTime, ale oddaje ISO-8601 z milisekundami ("...Z") albo nil.
func ToISO(s string) *string {
	t := ParseTime(s)
	if t == nil {
		return nil
	}
	iso := t.Format("2006-01-02T15:04:05.000Z")
	return &iso
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// i64/f64 — liberalne parsowanie pól liczbowych ze źródła (puste = 0)

func i64(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func f64(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
