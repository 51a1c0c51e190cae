package participant

import (
	"fmt"
	"strings"
)

type Specialty string

const (
	GeneralPractice Specialty = "general_practice"
	Cardiology      Specialty = "cardiology"
	Pediatrics      Specialty = "pediatrics"
	Orthopedics     Specialty = "orthopedics"
	Dermatology     Specialty = "dermatology"
	Gynecology      Specialty = "gynecology"
)

// Specialties lists every specialty in display order.
var Specialties = []Specialty{GeneralPractice, Cardiology, Pediatrics, Orthopedics, Dermatology, Gynecology}

// Label is the display label for a specialty.
func (s Specialty) Label() string {
	switch s {
	case GeneralPractice:
		return "General Practice"
	case Cardiology:
		return "Cardiology"
	case Pediatrics:
		return "Pediatrics"
	case Orthopedics:
		return "Orthopedics"
	case Dermatology:
		return "Dermatology"
	case Gynecology:
		return "Gynecology"
	default:
		return string(s)
	}
}

func ParseSpecialty(raw string) (Specialty, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, s := range Specialties {
		if string(s) == norm {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown specialty %q", raw)
}
