package entity

// SlotKey identifies one candidate appointment window of a doctor's day.
type SlotKey struct {
	Date Date
	Time ClockTime
}

// Slot is a generated window tagged with its availability
type Slot struct {
	Date      Date      `json:"date"`
	Time      ClockTime `json:"time"`
	Available bool      `json:"available"`
}

// SlotSet is the set of slots already held by active appointments.
type SlotSet map[SlotKey]struct{}

func NewSlotSet(keys ...SlotKey) SlotSet {
	set := make(SlotSet, len(keys))
	for _, k := range keys {
		set.Add(k)
	}
	return set
}

func (s SlotSet) Add(key SlotKey) {
	s[key] = struct{}{}
}

// Has is safe on a nil set.
func (s SlotSet) Has(key SlotKey) bool {
	_, ok := s[key]
	return ok
}
