// Package demographics derives age, age bracket and generation from a birth date.
package demographics

import (
	"math"
	"time"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// Plausible age range; anything outside clears every derived field
const (
	MinAge = 10
	MaxAge = 70
)

type bin struct {
	lower int // inclusive
	upper int // exclusive
	label string
}

var bracketBins = []bin{
	{0, 18, "<18"},
	{18, 25, "18-25"},
	{25, 30, "25-30"},
	{30, 35, "30-35"},
	{35, 40, "35-40"},
	{40, 100, "40+"},
}

var generationBins = []bin{
	{0, 18, "Très jeune"},
	{18, 25, "Gen Z"},
	{25, 35, "Millennial"},
	{35, 50, "Gen X"},
	{50, 100, "Boomer+"},
}

// BracketOrder lists bracket labels from youngest to oldest
var BracketOrder = labels(bracketBins)

// GenerationOrder lists generation labels from youngest to oldest
var GenerationOrder = labels(generationBins)

// Derive computes the demographic fields for one birth date at time now.
// Unparseable dates and implausible ages yield an empty Demographics.
func Derive(birth interface{}, now time.Time) model.Demographics {
	born, err := model.Time(birth)
	if err != nil {
		return model.Demographics{}
	}

	age, ok := Age(born, now)
	if !ok {
		return model.Demographics{}
	}

	return model.Demographics{
		Age:        model.IntPtr(age),
		Bracket:    Bracket(age),
		Generation: Generation(age),
	}
}

// Age returns whole years between born and now (days / 365, floored).
// ok is false when the age is outside [MinAge, MaxAge].
func Age(born, now time.Time) (int, bool) {
	days := math.Floor(now.Sub(born).Hours() / 24)
	age := int(math.Floor(days / 365))
	if age < MinAge || age > MaxAge {
		return age, false
	}
	return age, true
}

// Bracket returns the age bracket label, or "" outside every bin
func Bracket(age int) string {
	return lookup(bracketBins, age)
}

// Generation returns the generation label, or "" outside every bin
func Generation(age int) string {
	return lookup(generationBins, age)
}

func lookup(bins []bin, age int) string {
	for _, b := range bins {
		if age >= b.lower && age < b.upper {
			return b.label
		}
	}
	return ""
}

func labels(bins []bin) []string {
	out := make([]string, len(bins))
	for i, b := range bins {
		out[i] = b.label
	}
	return out
}
