package core

import "testing"

type validatedStruct struct {
	Username string `json:"username" validate:"required,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestValidateTranslations(t *testing.T) {
	err := Validate.Struct(validatedStruct{})
	if err == nil {
		t.Fatal("Validate.Struct() error = nil, want required failure")
	}
	flds := TranslateValidationErrors(err)
	if len(flds) != 1 {
		t.Fatalf("TranslateValidationErrors() = %+v, want 1 entry", flds)
	}
	// JSON tag name and the overridden required text
	if flds[0].Field != "username" {
		t.Errorf("Field = %q, want %q", flds[0].Field, "username")
	}
	if flds[0].Error != requiredText {
		t.Errorf("Error = %q, want %q", flds[0].Error, requiredText)
	}
}

func TestAlphaNumUnderValidation(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"jane_hero", true},
		{"JaneHero99", true},
		{"jane-hero", false},
		{"jane@hero", false},
	}
	for _, tt := range tests {
		err := Validate.Var(tt.value, alphaNumUnderTag)
		if ok := err == nil; ok != tt.ok {
			t.Errorf("Validate.Var(%q, alphanum_) ok = %v, want %v", tt.value, ok, tt.ok)
		}
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  Hello World "); got != "Hello World" {
		t.Errorf("CleanString() = %q, want %q", got, "Hello World")
	}
	if got := CleanString("  Hello World ", true); got != "hello world" {
		t.Errorf("CleanString(lower) = %q, want %q", got, "hello world")
	}
}
