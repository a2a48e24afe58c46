package account

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/tendant/simple-account/pkg/result"
)

// Error codes produced by the describer for conditions the store itself does
// not raise.
const (
	CodeAccountNotFound          = "AccountNotFound"
	CodeRoleAssignmentIncomplete = "RoleAssignmentIncomplete"
)

// Localizer renders a message key with contextual arguments in some locale.
type Localizer interface {
	Localize(key string, args ...interface{}) string
}

// CatalogLocalizer localizes messages through an x/text message catalog.
type CatalogLocalizer struct {
	printer *message.Printer
}

// NewCatalogLocalizer builds a localizer for the given language, falling back
// to English for untranslated keys.
func NewCatalogLocalizer(tag language.Tag) *CatalogLocalizer {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	builder.SetString(language.English, CodeAccountNotFound,
		"Account %s could not be found.")
	builder.SetString(language.English, CodeRoleAssignmentIncomplete,
		"Account %s was created but role assignment did not complete; retry the role assignment.")
	return &CatalogLocalizer{
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

func (l *CatalogLocalizer) Localize(key string, args ...interface{}) string {
	return l.printer.Sprintf(key, args...)
}

// ErrorDescriber produces generic errors for named, well-known failure
// conditions. New conditions are added as methods; callers that don't use
// them are unaffected. Variants can localize the message text without
// changing the code.
type ErrorDescriber struct {
	localizer Localizer
}

// NewErrorDescriber creates a describer with English messages.
func NewErrorDescriber() *ErrorDescriber {
	return NewLocalizedErrorDescriber(NewCatalogLocalizer(language.English))
}

// NewLocalizedErrorDescriber creates a describer using the given localizer.
func NewLocalizedErrorDescriber(localizer Localizer) *ErrorDescriber {
	return &ErrorDescriber{localizer: localizer}
}

// AccountNotFound describes an operation targeting an account that does not
// exist, identified to the user by email (or id when the email is unknown).
func (d *ErrorDescriber) AccountNotFound(accountEmail string) result.Error {
	return result.Error{
		Code:        CodeAccountNotFound,
		Description: d.localizer.Localize(CodeAccountNotFound, accountEmail),
	}
}

// RoleAssignmentIncomplete describes a created account whose requested roles
// could not all be assigned. The account exists; only the role step needs to
// be retried.
func (d *ErrorDescriber) RoleAssignmentIncomplete(accountEmail string) result.Error {
	return result.Error{
		Code:        CodeRoleAssignmentIncomplete,
		Description: d.localizer.Localize(CodeRoleAssignmentIncomplete, accountEmail),
	}
}
