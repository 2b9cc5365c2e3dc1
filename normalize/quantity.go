package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zombar/recipebox/models"
)

// vulgarFractions maps unicode fraction runes to their decimal value.
var vulgarFractions = map[rune]float64{
	'½': 0.5,
	'⅓': 1.0 / 3.0,
	'⅔': 2.0 / 3.0,
	'¼': 0.25,
	'¾': 0.75,
	'⅕': 0.2,
	'⅛': 0.125,
	'⅜': 0.375,
	'⅝': 0.625,
	'⅞': 0.875,
}

var (
	fractionRe = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	mixedRe    = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)$`)
)

// unitVocabulary lists the measurement units the ingredient-line parser
// recognizes, lower-cased. Plural and abbreviated forms are separate keys.
var unitVocabulary = map[string]bool{
	"cup": true, "cups": true,
	"tablespoon": true, "tablespoons": true, "tbsp": true,
	"teaspoon": true, "teaspoons": true, "tsp": true,
	"gram": true, "grams": true, "g": true,
	"kilogram": true, "kilograms": true, "kg": true,
	"milliliter": true, "milliliters": true, "ml": true,
	"liter": true, "liters": true, "l": true,
	"ounce": true, "ounces": true, "oz": true,
	"pound": true, "pounds": true, "lb": true, "lbs": true,
	"pinch": true, "pinches": true,
	"clove": true, "cloves": true,
	"slice": true, "slices": true,
	"can": true, "cans": true,
	"stick": true, "sticks": true,
	"piece": true, "pieces": true,
	"bunch": true, "bunches": true,
	"dash": true, "dashes": true,
}

// ParseQuantity parses an ingredient amount: integers, decimals, simple
// fractions ("1/2"), mixed numbers ("1 1/2"), and unicode vulgar fractions
// ("½", "1½").
func ParseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Unicode fraction, possibly with a leading whole part ("1½").
	runes := []rune(s)
	if frac, ok := vulgarFractions[runes[len(runes)-1]]; ok {
		whole := strings.TrimSpace(string(runes[:len(runes)-1]))
		if whole == "" {
			return frac, true
		}
		if n, err := strconv.ParseFloat(whole, 64); err == nil && n >= 0 {
			return n + frac, true
		}
		return 0, false
	}

	if m := mixedRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return 0, false
		}
		return whole + num/den, true
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return 0, false
		}
		return num / den, true
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ingredientLineRe captures "<quantity>[ <unit>] <name>" where quantity is
// an integer, decimal, fraction, mixed number, or vulgar fraction.
var ingredientLineRe = regexp.MustCompile(`^((?:\d+\s+\d+\s*/\s*\d+)|(?:\d+\s*/\s*\d+)|(?:\d+(?:\.\d+)?\s*[½⅓⅔¼¾⅕⅛⅜⅝⅞]?)|[½⅓⅔¼¾⅕⅛⅜⅝⅞])\s+(\S+\.?)?\s*(.*)$`)

// ParseIngredientLine turns a raw ingredient line into a structured
// ingredient. Lines that do not lead with a quantity become a bare name.
// A trailing parenthesized or comma-separated remark becomes Notes.
func ParseIngredientLine(line string) models.Ingredient {
	line = CollapseWhitespace(line)
	if line == "" {
		return models.Ingredient{}
	}

	m := ingredientLineRe.FindStringSubmatch(line)
	if m == nil {
		name, notes := splitNotes(line)
		return models.Ingredient{Name: name, Notes: notes}
	}

	qty, ok := ParseQuantity(strings.TrimSpace(m[1]))
	if !ok {
		name, notes := splitNotes(line)
		return models.Ingredient{Name: name, Notes: notes}
	}

	unit := strings.ToLower(strings.TrimSuffix(m[2], "."))
	rest := strings.TrimSpace(m[3])

	if !unitVocabulary[unit] {
		// Second token was part of the name, not a unit.
		rest = strings.TrimSpace(m[2] + " " + rest)
		unit = ""
	}

	if rest == "" {
		// Quantity with no name; treat whole line as a bare name.
		name, notes := splitNotes(line)
		return models.Ingredient{Name: name, Notes: notes}
	}

	// "of" connects unit and name ("2 cups of flour").
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "of "))

	name, notes := splitNotes(rest)
	return models.Ingredient{Name: name, Quantity: &qty, Unit: unit, Notes: notes}
}

// splitNotes separates a trailing remark from an ingredient name:
// "butter, softened" and "flour (sifted)" both carry notes.
func splitNotes(s string) (name, notes string) {
	if i := strings.Index(s, "("); i > 0 {
		notes = strings.Trim(s[i:], "() ")
		s = strings.TrimSpace(s[:i])
	} else if i := strings.Index(s, ","); i > 0 {
		notes = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}
	return s, notes
}
