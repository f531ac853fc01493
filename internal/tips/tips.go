// Package tips rotates a fixed list of nutrition tips by calendar day.
package tips

import "time"

type Tip struct {
	Title string
	Body  string
}

var all = []Tip{
	{"Protein at every meal", "Spread protein across meals; 25-40 g per sitting supports satiety and muscle repair."},
	{"Drink before you snack", "Thirst is easy to mistake for hunger. Have a glass of water and wait ten minutes."},
	{"Fill half the plate", "Vegetables add volume and fibre for very few calories."},
	{"Plan the week", "Generating the plan on Sunday makes grocery shopping and prep a single trip."},
	{"Mind liquid calories", "Juices, lattes and sodas add up fast without filling you up."},
	{"Fibre target", "Aim for 25-35 g of fibre a day from legumes, whole grains, fruit and vegetables."},
	{"Read the label", "Check the serving size first; every other number on the label depends on it."},
	{"Healthy fats", "Olive oil, nuts and oily fish belong in the plan, just measure the portions."},
	{"Slow down", "It takes around twenty minutes for fullness signals to arrive. Eat without screens."},
	{"Batch cook", "Cook grains and proteins in bulk twice a week to keep the plan easy to follow."},
	{"Sleep counts", "Short sleep raises appetite the next day. Protect seven to nine hours."},
	{"Consistency over perfection", "Hitting your macros most days beats a perfect day followed by a bad week."},
}

// All returns a copy of the full tip list.
func All() []Tip {
	return append([]Tip(nil), all...)
}

// ForDay returns up to n tips starting at the offset of t's calendar day,
// wrapping around the list. Same local date, same tips.
func ForDay(t time.Time, n int) []Tip {
	return rotate(all, dayNumber(t), n)
}

// Today is ForDay for the current local date.
func Today(n int) []Tip {
	return ForDay(time.Now(), n)
}

func rotate(list []Tip, day int64, n int) []Tip {
	if n <= 0 || len(list) == 0 {
		return nil
	}
	n = min(n, len(list))

	size := int64(len(list))
	offset := int(((day % size) + size) % size)

	out := make([]Tip, 0, n)
	for i := range n {
		out = append(out, list[(offset+i)%len(list)])
	}
	return out
}

// dayNumber counts calendar days since 1970-01-01 for t's date in t's location.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return date.Unix() / 86400
}
