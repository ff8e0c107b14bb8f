package quizdrill

import (
	"regexp"
	"sort"
	"strings"
)

// letteredOption matches options that already start with their letter,
// e.g. "A. foo", "B,bar" or "C、baz".
var letteredOption = regexp.MustCompile(`^([A-F])[.,、]`)

// CleanAnswer drops separators so that "A,B", "A B" and "AB" compare equal
func CleanAnswer(s string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(s)
}

// AnswersMatch compares two answers as sets of option letters
func AnswersMatch(user, correct string) bool {
	return sortChars(CleanAnswer(user)) == sortChars(CleanAnswer(correct))
}

func sortChars(s string) string {
	r := []rune(s)
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return string(r)
}

// IsLettered reports whether the option text already carries its letter
func IsLettered(option string) bool {
	return letteredOption.MatchString(option)
}

// OptionLetter returns the letter an option is answered with. Options that
// are not lettered fall back to the text before the first dot.
func OptionLetter(option string) string {
	if m := letteredOption.FindStringSubmatch(option); m != nil {
		return m[1]
	}
	letter, _, _ := strings.Cut(option, ".")
	return strings.TrimSpace(letter)
}

// JoinChoices turns the selected letters into an answer string
func JoinChoices(letters []string) string {
	sorted := append([]string(nil), letters...)
	sort.Strings(sorted)
	return strings.Join(sorted, "")
}

// letterFor returns "A" for 0, "B" for 1 and so on
func letterFor(i int) string {
	return string(rune('A' + i))
}
