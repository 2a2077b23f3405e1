// Package persona defines the character profiles that drive a negotiation
// and the prompt builders that turn a profile into model instructions.
package persona

import (
	"fmt"
	"strings"
)

// DefaultModel is used when a request omits the character's model identifier.
const DefaultModel = "gemini-1.5-flash"

// Profile describes one negotiating character. All fields except ModelName
// are required; a profile is immutable once a negotiation starts.
type Profile struct {
	Name       string `json:"name" yaml:"name"`
	Profession string `json:"profession" yaml:"profession"`
	Background string `json:"background" yaml:"background"`
	Mood       string `json:"mood" yaml:"mood"`
	Behavior   string `json:"behavior" yaml:"behavior"`
	Objective  string `json:"objective" yaml:"objective"`
	Strengths  string `json:"strengths" yaml:"strengths"`
	ModelName  string `json:"model_name,omitempty" yaml:"model_name"`
}

// Validate reports the first missing required field.
func (p Profile) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"profession", p.Profession},
		{"background", p.Background},
		{"mood", p.Mood},
		{"behavior", p.Behavior},
		{"objective", p.Objective},
		{"strengths", p.Strengths},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required field %q", f.name)
		}
	}
	return nil
}

// Model returns the character's model identifier, falling back to DefaultModel.
func (p Profile) Model() string {
	if p.ModelName == "" {
		return DefaultModel
	}
	return p.ModelName
}

// SpeakerLabel is the attribution used for this character's transcript turns.
func (p Profile) SpeakerLabel() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Background)
}
