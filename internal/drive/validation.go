package drive

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxNameLength bounds folder and file names, in runes.
const MaxNameLength = 255

var (
	noSlash     = regexp.MustCompile(`^[^/]+$`)
	notDotNames = regexp.MustCompile(`^[^.]|^\.[^.]|^\.\..`)
)

func nameRules(kind string) []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, MaxNameLength),
		validation.Match(noSlash).Error(kind + " name cannot contain slashes"),
		validation.Match(notDotNames).Error(kind + " name cannot be . or .."),
	}
}

// ValidateFolderName checks a folder name before it reaches storage.
func ValidateFolderName(name string) error {
	if err := validation.Validate(name, nameRules("folder")...); err != nil {
		return &ValidationError{Field: "name", Err: err}
	}
	return nil
}

// ValidateFileName applies the folder name rules to file names.
func ValidateFileName(name string) error {
	if err := validation.Validate(name, nameRules("file")...); err != nil {
		return &ValidationError{Field: "name", Err: err}
	}
	return nil
}

// ValidateOwnerID rejects an empty owner, and any owner that would not be a
// single segment of a blob key.
func ValidateOwnerID(ownerID string) error {
	err := validation.Validate(ownerID,
		validation.Required,
		validation.Length(1, MaxNameLength),
		validation.Match(noSlash).Error("owner cannot contain slashes"),
		validation.Match(notDotNames).Error("owner cannot be . or .."),
	)
	if err != nil {
		return &ValidationError{Field: "owner_id", Err: err}
	}
	return nil
}
