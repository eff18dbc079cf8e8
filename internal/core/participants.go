package core

import "strings"

// Fallback display for names outside the roster.
const (
	FallbackIcon  = "🏃‍♀️"
	FallbackColor = "#808080"
)

// Participant carries a roster name and its display metadata.
type Participant struct {
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
}

// Roster is the closed, ordered set of recognized participants.
type Roster struct {
	list  []Participant
	index map[string]int
}

// NewRoster builds a roster, dropping blank and duplicate names while
// preserving first-seen order. Missing icons or colours get the fallback.
func NewRoster(participants []Participant) Roster {
	r := Roster{index: make(map[string]int)}
	for _, p := range participants {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		if _, ok := r.index[p.Name]; ok {
			continue
		}
		if strings.TrimSpace(p.Icon) == "" {
			p.Icon = FallbackIcon
		}
		if strings.TrimSpace(p.Color) == "" {
			p.Color = FallbackColor
		}
		r.index[p.Name] = len(r.list)
		r.list = append(r.list, p)
	}
	return r
}

// RosterFromNames builds a roster from bare names with fallback display.
func RosterFromNames(names []string) Roster {
	ps := make([]Participant, 0, len(names))
	for _, n := range names {
		ps = append(ps, Participant{Name: n})
	}
	return NewRoster(ps)
}

// DefaultRoster is the original three-person challenge.
func DefaultRoster() Roster {
	return NewRoster([]Participant{
		{Name: "Lili", Icon: "👱‍♀️✨", Color: "#FF4B4B"},
		{Name: "Lenka", Icon: "👩🏻", Color: "#4B8BFF"},
		{Name: "Monka", Icon: "👱‍♀️", Color: "#FFD700"},
	})
}

// Has reports whether name is a recognized participant.
func (r Roster) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Lookup returns display metadata for name, or the fallback display.
func (r Roster) Lookup(name string) Participant {
	if i, ok := r.index[name]; ok {
		return r.list[i]
	}
	return Participant{Name: name, Icon: FallbackIcon, Color: FallbackColor}
}

// Participants returns a copy of the roster in order.
func (r Roster) Participants() []Participant {
	return append([]Participant(nil), r.list...)
}

// Names returns the participant names in order.
func (r Roster) Names() []string {
	out := make([]string, len(r.list))
	for i, p := range r.list {
		out[i] = p.Name
	}
	return out
}

// Len returns the number of participants.
func (r Roster) Len() int {
	return len(r.list)
}
