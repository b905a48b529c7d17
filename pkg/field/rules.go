package field

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Required fails blank values with message.
func Required(message string) Validator {
	if message == "" {
		message = "Required"
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if value.Empty() {
			return message
		}
		return ""
	})
}

// MinLength fails values shorter than n characters. Blank values pass so the
// rule composes with Required.
func MinLength(n int, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("Min %d chars", n)
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if value.Raw == "" {
			return ""
		}
		if utf8.RuneCountInString(value.Raw) < n {
			return message
		}
		return ""
	})
}

// MaxLength fails values longer than n characters.
func MaxLength(n int, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("Max %d chars", n)
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if utf8.RuneCountInString(value.Raw) > n {
			return message
		}
		return ""
	})
}

// ExactLength fails non-blank values whose length differs from n.
func ExactLength(n int, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("Must be %d characters", n)
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if value.Raw == "" {
			return ""
		}
		if utf8.RuneCountInString(value.Raw) != n {
			return message
		}
		return ""
	})
}

// Pattern fails non-blank values that do not match re.
func Pattern(re *regexp.Regexp, message string) Validator {
	if message == "" {
		message = "Does not match required pattern"
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if re == nil || value.Raw == "" {
			return ""
		}
		if !re.MatchString(value.Raw) {
			return message
		}
		return ""
	})
}

// Min fails numeric values below bound. Non-numeric input fails with the
// same message.
func Min(bound float64, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("Must be at least %g", bound)
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if value.Empty() {
			return ""
		}
		n, ok := value.Number()
		if !ok || n < bound {
			return message
		}
		return ""
	})
}

// Max fails numeric values above bound.
func Max(bound float64, message string) Validator {
	if message == "" {
		message = fmt.Sprintf("Must be at most %g", bound)
	}
	return ValidatorFunc(func(value Value, _ Values) string {
		if value.Empty() {
			return ""
		}
		n, ok := value.Number()
		if !ok || n > bound {
			return message
		}
		return ""
	})
}

// All runs validators in order and returns the first message. Nil entries are
// skipped; with no usable validators All returns nil.
func All(validators ...Validator) Validator {
	chain := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			chain = append(chain, v)
		}
	}
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	}
	return ValidatorFunc(func(value Value, all Values) string {
		for _, v := range chain {
			if msg := v.Validate(value, all); msg != "" {
				return msg
			}
		}
		return ""
	})
}
