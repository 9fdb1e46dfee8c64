package config

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"qrquad/internal/utils"
)

const (
	KeyDomainName = "domain_name"
	KeyCodeName   = "code_name"

	DefaultDomainName = "https://www.duckduckgo.com"
	DefaultCodeName   = "ALABASTER"

	MaxDomainNameLen = 300
	MaxCodeNameLen   = 15
)

// Settings is the persisted routing metadata sent with every submission.
type Settings struct {
	DomainName string `json:"domain_name" yaml:"domain_name"`
	CodeName   string `json:"code_name" yaml:"code_name"`
}

// Defaults returns the factory settings.
func Defaults() Settings {
	return Settings{DomainName: DefaultDomainName, CodeName: DefaultCodeName}
}

// IsDefault reports whether either value is still at its factory default.
// A capture session must not start in that state.
func (s Settings) IsDefault() bool {
	return s.DomainName == DefaultDomainName || s.CodeName == DefaultCodeName
}

// Validate checks both values.
func (s Settings) Validate() error {
	if err := ValidateDomainName(s.DomainName); err != nil {
		return err
	}
	return ValidateCodeName(s.CodeName)
}

// ValidateDomainName requires a non-empty absolute https URL with a host.
func ValidateDomainName(v string) error {
	if strings.TrimSpace(v) == "" {
		return utils.New(utils.KindInvalid, "empty urls are not allowed")
	}
	if len(v) > MaxDomainNameLen {
		return utils.New(utils.KindInvalid, "url is too long")
	}
	u, err := url.Parse(v)
	if err != nil {
		return utils.Wrap(utils.KindInvalid, "invalid domain name", err)
	}
	if u.Scheme != "https" || u.Host == "" || strings.ContainsAny(u.Host, " \t") {
		return utils.New(utils.KindInvalid, "invalid domain name")
	}
	return nil
}

// ValidateCodeName requires 1 to MaxCodeNameLen characters.
func ValidateCodeName(v string) error {
	if strings.TrimSpace(v) == "" {
		return utils.New(utils.KindInvalid, "empty code names are not allowed")
	}
	if utf8.RuneCountInString(v) > MaxCodeNameLen {
		return utils.New(utils.KindInvalid, "code name is longer than 15 characters")
	}
	return nil
}
