package principal

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/darasahub/darasa/core"
)

var (
	roleTagTag  = "roletag"
	roleTagText = "invalid role"

	// password policy
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceText    = "password must not contain whitespace"
	pwdNotAllNumText  = "password cannot be entirely numeric"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to account attributes"

	pwdNoCommonText = "password is too common"
	commonPasswords []string
	commonPwdsOnce  sync.Once
)

// InitValidators registers principal-specific payload validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTagTag, roleTagValidation)
	core.RegisterCustomTranslation(validate, translator, roleTagTag, roleTagText)
}

// roleTagValidation checks that a role field holds a member of the closed role set.
func roleTagValidation(fl validator.FieldLevel) bool {
	return IsKnownRole(fl.Field().String())
}

func loadCommonPasswords() {
	commonPasswords = make([]string, 0, 19727)
	path := filepath.Join(core.Getwd(), "assets", "common-passwords.txt.gz")
	if file, err := os.Open(path); err == nil {
		//goland:noinspection GoUnhandledErrorResult
		defer file.Close()
		if gzRdr, err := gzip.NewReader(file); err == nil {
			scanner := bufio.NewScanner(gzRdr)
			for scanner.Scan() {
				commonPasswords = append(commonPasswords, strings.TrimSpace(scanner.Text()))
			}
		}
	}
	sort.Strings(commonPasswords)
}

// CheckPasswordStrength applies the account password policy:
// - minLen: 8
// - no whitespace
// - not all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no similarity to the given account attributes
// - not a common password
func CheckPasswordStrength(pwd string, attrs ...string) error {
	commonPwdsOnce.Do(loadCommonPasswords)

	policyErr := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		return policyErr(pwdMinLenText)
	}

	var digitCount int
	var hasUpper, hasLower bool
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return policyErr(pwdNoSpaceText)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}
	if digitCount == pwdLen {
		return policyErr(pwdNotAllNumText)
	}
	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		return policyErr(pwdComplexityText)
	}

	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return policyErr(pwdAttrSimText)
		}
	}

	lpwd := strings.ToLower(pwd)
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) {
		if match := commonPasswords[idx]; lpwd == match {
			return policyErr(pwdNoCommonText)
		}
	}
	return nil
}
