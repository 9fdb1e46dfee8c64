package config

import (
	"strings"
	"testing"

	"qrquad/internal/utils"
)

func TestValidateDomainName(t *testing.T) {
	valid := []string{"https://collect.example.com", "https://10.0.0.5:8443/api/scan"}
	for _, v := range valid {
		if err := ValidateDomainName(v); err != nil {
			t.Fatalf("ValidateDomainName(%q): %v", v, err)
		}
	}
	invalid := []string{"", "   ", "collect.example.com", "http://collect.example.com", "https://", "ftp://x", "https://" + strings.Repeat("a", MaxDomainNameLen)}
	for _, v := range invalid {
		err := ValidateDomainName(v)
		if err == nil {
			t.Fatalf("ValidateDomainName(%q) accepted", v)
		}
		if utils.KindOf(err) != utils.KindInvalid {
			t.Fatalf("ValidateDomainName(%q) kind = %q", v, utils.KindOf(err))
		}
	}
}

func TestValidateCodeName(t *testing.T) {
	if err := ValidateCodeName("FALCON"); err != nil {
		t.Fatal(err)
	}
	if err := ValidateCodeName(strings.Repeat("é", MaxCodeNameLen)); err != nil {
		t.Fatalf("15 runes should be allowed: %v", err)
	}
	for _, v := range []string{"", " ", strings.Repeat("x", MaxCodeNameLen+1)} {
		if err := ValidateCodeName(v); err == nil {
			t.Fatalf("ValidateCodeName(%q) accepted", v)
		}
	}
}

func TestIsDefault(t *testing.T) {
	if !Defaults().IsDefault() {
		t.Fatal("factory settings must report default")
	}
	if !(Settings{DomainName: "https://a.example", CodeName: DefaultCodeName}).IsDefault() {
		t.Fatal("default code name alone must report default")
	}
	if !(Settings{DomainName: DefaultDomainName, CodeName: "FALCON"}).IsDefault() {
		t.Fatal("default url alone must report default")
	}
	if (Settings{DomainName: "https://a.example", CodeName: "FALCON"}).IsDefault() {
		t.Fatal("configured settings reported default")
	}
}
