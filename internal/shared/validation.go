package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage turns a validator error into the French message the
// dashboard displays verbatim, naming the offending field where feasible.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Requête invalide"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Le champ %s est requis", field)
	case "email":
		return "Adresse email invalide"
	case "oneof":
		return fmt.Sprintf("Valeur invalide pour le champ %s", field)
	case "gt", "gte", "min", "max":
		return fmt.Sprintf("Valeur hors limites pour le champ %s", field)
	default:
		return fmt.Sprintf("Le champ %s est invalide", field)
	}
}
