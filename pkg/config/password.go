package config

import "github.com/tendant/simple-account/pkg/accountstore"

// PasswordComplexityConfig holds password policy configuration from
// environment variables.
type PasswordComplexityConfig struct {
	Enabled                 bool `env:"PASSWORD_POLICY_ENABLED" env-default:"true"`
	RequiredLength          int  `env:"PASSWORD_COMPLEXITY_REQUIRED_LENGTH" env-default:"8"`
	RequiredUppercase       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE" env-default:"true"`
	RequiredLowercase       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE" env-default:"true"`
	RequiredDigit           bool `env:"PASSWORD_COMPLEXITY_REQUIRE_DIGIT" env-default:"true"`
	RequiredNonAlphanumeric bool `env:"PASSWORD_COMPLEXITY_REQUIRE_NON_ALPHANUMERIC" env-default:"true"`
}

// ToPasswordPolicy converts the configuration to a store password policy.
func (c *PasswordComplexityConfig) ToPasswordPolicy() *accountstore.PasswordPolicy {
	if c == nil {
		return accountstore.DefaultPasswordPolicy()
	}
	if !c.Enabled {
		return accountstore.NoOpPasswordPolicy()
	}
	return &accountstore.PasswordPolicy{
		MinLength:          c.RequiredLength,
		RequireUppercase:   c.RequiredUppercase,
		RequireLowercase:   c.RequiredLowercase,
		RequireDigit:       c.RequiredDigit,
		RequireSpecialChar: c.RequiredNonAlphanumeric,
	}
}
