package narrative

import (
	"strconv"
	"strings"

	"github.com/your-org/moments/internal/models"
)

// Template builds the narrative without any external call.
func (s *Synthesizer) Template(in Input) string {
	if models.MeaningfulCaption(in.Caption) {
		return s.captioned(in)
	}
	return s.fill(s.pick(s.poolFor(in)), in)
}

func (s *Synthesizer) captioned(in Input) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(strings.TrimSpace(in.Caption), ".!? "))

	if in.Place != nil && in.Place.City != "" && !s.profile.IsHome(in.Place) {
		b.WriteString(", in ")
		b.WriteString(in.Place.City)
		if c := strings.TrimSpace(in.Place.Country); c != "" && !isUS(c) {
			b.WriteString(", ")
			b.WriteString(c)
		}
	}

	switch n := in.FaceCount; {
	case n == 1:
		b.WriteString(" with someone special")
	case n == 2:
		b.WriteString(" with a friend")
	case n > 2:
		b.WriteString(" with " + strconv.Itoa(n-1) + " others")
	}
	b.WriteString(".")

	if anyMatch(in.Labels, interesting) {
		b.WriteString(" ")
		b.WriteString(closingRemark)
	}
	return b.String()
}

// poolFor walks the pools in priority order: location, activity, people,
// generic.
func (s *Synthesizer) poolFor(in Input) []string {
	if in.Place != nil && in.Place.City != "" {
		if s.profile.IsAway(in.Place) {
			if s.profile.HasInterest(travelInterests...) {
				return awayTravelerPool
			}
			return awayPool
		}
		if s.profile.HasInterest(localInterests...) {
			return homeLocalPool
		}
		return homePool
	}

	for _, a := range activities {
		if !anyMatch(in.Labels, a.labels) {
			continue
		}
		if s.profile.HasInterest(a.interests...) {
			return a.personal
		}
		return a.pool
	}

	switch n := in.FaceCount; {
	case n == 1:
		return soloPool
	case n == 2:
		return pairPool
	case n > 2:
		return groupPool
	}
	return genericPool
}

func (s *Synthesizer) pick(pool []string) string {
	return pool[s.rng.IntN(len(pool))]
}

func (s *Synthesizer) fill(sentence string, in Input) string {
	city := ""
	if in.Place != nil {
		city = in.Place.City
	}
	return strings.NewReplacer(
		"{name}", s.profile.Name,
		"{city}", city,
		"{others}", strconv.Itoa(max(in.FaceCount-1, 0)),
	).Replace(sentence)
}

func anyMatch(labels, vocabulary []string) bool {
	for _, l := range labels {
		l = strings.TrimSpace(l)
		for _, v := range vocabulary {
			if strings.EqualFold(l, v) {
				return true
			}
		}
	}
	return false
}

func isUS(country string) bool {
	switch strings.ToLower(country) {
	case "united states", "united states of america", "usa", "us", "u.s.", "u.s.a.":
		return true
	}
	return false
}
