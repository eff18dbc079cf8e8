package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"stepqueen/internal/core"
)

// rosterFile is the YAML layout of PARTICIPANTS_FILE:
//
//	participants:
//	  - name: Lili
//	    icon: "👱‍♀️✨"
//	    color: "#FF4B4B"
type rosterFile struct {
	Participants []core.Participant `yaml:"participants"`
}

// Roster resolves the participant roster. PARTICIPANTS_FILE wins over the
// PARTICIPANTS name list; with neither set the default roster is used.
func (c *Config) Roster() (core.Roster, error) {
	if c.ParticipantsFile != "" {
		return LoadRosterFile(c.ParticipantsFile)
	}
	if names := splitNames(c.Participants); len(names) > 0 {
		return core.RosterFromNames(names), nil
	}
	return core.DefaultRoster(), nil
}

// LoadRosterFile reads a YAML roster file.
func LoadRosterFile(path string) (core.Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Roster{}, fmt.Errorf("read participants file: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes a YAML roster. An empty roster is an error.
func ParseRoster(data []byte) (core.Roster, error) {
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.Roster{}, fmt.Errorf("parse participants file: %w", err)
	}
	roster := core.NewRoster(f.Participants)
	if roster.Len() == 0 {
		return core.Roster{}, fmt.Errorf("participants file lists no participants")
	}
	return roster, nil
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
