package domain

import "fmt"

// Default values applied to a fresh ServiceDescription.
const (
	DefaultContentType = "text/plain"
	DefaultStatusCode  = "200"
)

// ServiceDescription is the unvalidated, textual form of a virtual service.
// It is filled by the parser and consumed once by NewService.
type ServiceDescription struct {
	// ID is optional. A random identifier is generated when empty.
	ID string

	// Request side
	Method       string
	Path         string
	BodyContains string

	// Response side
	ContentType string
	StatusCode  string
	Body        string
}

// NewServiceDescription returns a description carrying the defaults.
func NewServiceDescription() *ServiceDescription {
	return &ServiceDescription{
		ContentType: DefaultContentType,
		StatusCode:  DefaultStatusCode,
	}
}

// setter assigns a raw textual value to one description field.
type setter func(d *ServiceDescription, value string)

// settings maps setting names, as written in a description, to their field.
// Adding a setting only requires a new entry here.
var settings = map[string]setter{
	"Id":           func(d *ServiceDescription, v string) { d.ID = v },
	"Method":       func(d *ServiceDescription, v string) { d.Method = v },
	"Path":         func(d *ServiceDescription, v string) { d.Path = v },
	"BodyContains": func(d *ServiceDescription, v string) { d.BodyContains = v },
	"ContentType":  func(d *ServiceDescription, v string) { d.ContentType = v },
	"StatusCode":   func(d *ServiceDescription, v string) { d.StatusCode = v },
}

// Set assigns value to the setting called name. Names are case sensitive.
func (d *ServiceDescription) Set(name, value string) error {
	set, ok := settings[name]
	if !ok {
		return fmt.Errorf("%w: '%s'. Please check your spelling, and be aware that setting names are case sensitive", ErrUnknownSetting, name)
	}
	set(d, value)
	return nil
}

// SettingNames lists the recognized setting names.
func SettingNames() []string {
	return []string{"Id", "Method", "Path", "BodyContains", "ContentType", "StatusCode"}
}
