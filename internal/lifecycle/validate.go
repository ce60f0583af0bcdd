package lifecycle

import (
	"strings"

	"smart-international-shipping/internal/domain"
)

const minNameLen = 3

func checkName(v *domain.ValidationError, field, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		v.Add(field, "is required")
	case len([]rune(name)) < minNameLen:
		v.Add(field, "must be at least 3 characters")
	}
}

func checkPositive(v *domain.ValidationError, field string, n int) {
	if n <= 0 {
		v.Add(field, "must be greater than 0")
	}
}
