package numerology

import (
	"fmt"
	"time"

	"github.com/hieutrtr/numerologist-sub002/internal/domain"
)

const birthDateLayout = "2006-01-02"

// ParseBirthDate parses the wire format used across the product (YYYY-MM-DD).
func ParseBirthDate(s string) (time.Time, error) {
	t, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("birth date %q: %w", s, err)
	}
	return t, nil
}

// reduce collapses n to a single digit 1..9, preserving the master numbers
// 11, 22 and 33. Zero reduces to 9.
func reduce(n int) int {
	if n < 0 {
		n = -n
	}
	for n >= 10 {
		if n == 11 || n == 22 || n == 33 {
			return n
		}
		sum := 0
		for n > 0 {
			sum += n % 10
			n /= 10
		}
		n = sum
	}
	if n == 0 {
		return 9
	}
	return n
}

func digitSum(n int) int {
	if n < 0 {
		n = -n
	}
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

// LifePath sums all digits of MMDDYYYY and reduces the total.
func LifePath(birth time.Time) int {
	total := digitSum(int(birth.Month())) + digitSum(birth.Day()) + digitSum(birth.Year())
	return reduce(total)
}

// Destiny reduces the letter-value sum of the full name.
func Destiny(fullName string) int {
	return reduce(sumLetterValues([]rune(fullName)))
}

// SoulUrge reduces the letter-value sum of the vowels in the full name.
func SoulUrge(fullName string) int {
	return reduce(sumLetterValues(extractVowels(fullName)))
}

// Personality reduces the letter-value sum of the consonants in the full name.
func Personality(fullName string) int {
	return reduce(sumLetterValues(extractConsonants(fullName)))
}

// PersonalYear sums birth month, birth day and the current year digits.
func PersonalYear(birthMonth, birthDay, currentYear int) int {
	return reduce(digitSum(birthMonth) + digitSum(birthDay) + digitSum(currentYear))
}

// PersonalMonth sums birth day, current month and current year digits.
func PersonalMonth(birthDay, currentMonth, currentYear int) int {
	return reduce(digitSum(birthDay) + digitSum(currentMonth) + digitSum(currentYear))
}

// Profile computes every number the product persists with a conversation.
func Profile(fullName string, birth, now time.Time) domain.NumerologyNumbers {
	return domain.NumerologyNumbers{
		LifePath:      LifePath(birth),
		Destiny:       Destiny(fullName),
		SoulUrge:      SoulUrge(fullName),
		Personality:   Personality(fullName),
		PersonalYear:  PersonalYear(int(birth.Month()), birth.Day(), now.Year()),
		PersonalMonth: PersonalMonth(birth.Day(), int(now.Month()), now.Year()),
	}
}
