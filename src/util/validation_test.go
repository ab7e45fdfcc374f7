package util

import "testing"

func TestValidateMonobankToken(t *testing.T) {
	valid := []string{
		"uXvB9kQ2monotokenXYZa",
		"u-Xv_B9kQ2monotokenXYZabcdef01234567890AB",
	}
	for _, token := range valid {
		if !ValidateMonobankToken(token) {
			t.Errorf("token %q should be valid", token)
		}
	}

	invalid := []string{
		"",
		"short",
		"has spaces in the token aaaa",
		"має-кирилицю-і-досить-довгий",
	}
	for _, token := range invalid {
		if ValidateMonobankToken(token) {
			t.Errorf("token %q should be invalid", token)
		}
	}
}

func TestValidatePlatform(t *testing.T) {
	for _, p := range []string{"android", "ios", "web"} {
		if !ValidatePlatform(p) {
			t.Errorf("platform %q should be valid", p)
		}
	}
	for _, p := range []string{"", "blackberry", "Android"} {
		if ValidatePlatform(p) {
			t.Errorf("platform %q should be invalid", p)
		}
	}
}

func TestValidateTransactionKind(t *testing.T) {
	if !ValidateTransactionKind("income") || !ValidateTransactionKind("expense") {
		t.Error("income and expense are valid kinds")
	}
	if ValidateTransactionKind("transfer") || ValidateTransactionKind("") {
		t.Error("other kinds are invalid")
	}
}
