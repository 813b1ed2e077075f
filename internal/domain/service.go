package domain

// DurationClass buckets a service by its impact on the chair's time.
type DurationClass int

const (
	DurationZero DurationClass = iota
	DurationShort
	DurationLong
)

func (c DurationClass) String() string {
	switch c {
	case DurationShort:
		return "short"
	case DurationLong:
		return "long"
	default:
		return "zero"
	}
}

// SizePrices is the tiered price of treatments priced by hair length.
type SizePrices struct {
	Small  int `json:"p"`
	Medium int `json:"m"`
	Large  int `json:"g"`
}

type Service struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	DurationMinutes int         `json:"duration,omitempty"`
	Price           *int        `json:"price,omitempty"`
	Sizes           *SizePrices `json:"sizes,omitempty"`
}

// Class derives the duration class from the configured duration.
func (s Service) Class() DurationClass {
	switch {
	case s.DurationMinutes <= 0:
		return DurationZero
	case s.DurationMinutes < 60:
		return DurationShort
	default:
		return DurationLong
	}
}

// Tiered reports whether the service is priced per size.
func (s Service) Tiered() bool {
	return s.Sizes != nil
}

func IntPtr(v int) *int {
	return &v
}
