package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
)

const timeOfDayLayout = "15:04"

// ParseTimeOfDay разбирает строку "15:04" в минуты от полуночи.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatTimeOfDay форматирует минуты от полуночи обратно в "15:04".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotInterval — один шаг разбиения диапазона.
type SlotInterval struct {
	Start string
	End   string
}

// SplitRange разбивает диапазон [startTime, endTime) на интервалы
// длительностью durationMin. Неполный «хвост» отбрасывается.
func SplitRange(startTime, endTime string, durationMin int) ([]SlotInterval, error) {
	if durationMin <= 0 {
		return nil, ErrSlotDuration
	}

	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidTimeRange, startTime, endTime)
	}

	var intervals []SlotInterval
	for cur := start; cur+durationMin <= end; cur += durationMin {
		intervals = append(intervals, SlotInterval{
			Start: FormatTimeOfDay(cur),
			End:   FormatTimeOfDay(cur + durationMin),
		})
	}

	return intervals, nil
}

// DateOnly обнуляет время, сохраняя дату и часовой пояс.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// MinutesOfDay возвращает минуты от полуночи для момента времени.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
