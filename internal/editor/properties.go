package editor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kilupskalvis/folio/internal/models"
)

// Property names one editable attribute or style field of a block.
type Property string

const (
	PropID              Property = "id"
	PropClass           Property = "class"
	PropPaddingTop      Property = "paddingTop"
	PropPaddingBottom   Property = "paddingBottom"
	PropPaddingLeft     Property = "paddingLeft"
	PropPaddingRight    Property = "paddingRight"
	PropBackgroundColor Property = "backgroundColor"
	PropTextColor       Property = "textColor"
	PropWidth           Property = "width"
	PropHeight          Property = "height"
)

type propertyDef struct {
	name  Property
	label string
	rule  string
	hint  string
	clean func(string) string
	get   func(*models.Block) string
	set   func(*models.Block, string)
}

var (
	cssLength = regexp.MustCompile(`^(auto|0|\d+(\.\d+)?(px|%|em|rem|vw|vh|ch))$`)
	htmlID    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_:.-]*$`)
	cssClass  = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("csslength", func(fl validator.FieldLevel) bool {
		return cssLength.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("htmlid", func(fl validator.FieldLevel) bool {
		return htmlID.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("classlist", func(fl validator.FieldLevel) bool {
		for _, c := range strings.Fields(fl.Field().String()) {
			if !cssClass.MatchString(c) {
				return false
			}
		}
		return true
	}))
	return v
}

func stripPx(v string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.ToLower(v), "px"))
}

func collapseSpaces(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func padding(name Property, label string, field func(*models.Style) *string) propertyDef {
	return propertyDef{
		name:  name,
		label: label,
		rule:  "omitempty,number,max=5",
		hint:  "a non-negative whole number of pixels",
		clean: stripPx,
		get:   func(b *models.Block) string { return *field(&b.Style) },
		set:   func(b *models.Block, v string) { *field(&b.Style) = v },
	}
}

func color(name Property, label string, field func(*models.Style) *string) propertyDef {
	return propertyDef{
		name:  name,
		label: label,
		rule:  "omitempty,iscolor",
		hint:  "a CSS color such as #1e90ff or rgb(30, 144, 255)",
		clean: strings.ToLower,
		get:   func(b *models.Block) string { return *field(&b.Style) },
		set:   func(b *models.Block, v string) { *field(&b.Style) = v },
	}
}

func length(name Property, label string, field func(*models.Style) *string) propertyDef {
	return propertyDef{
		name:  name,
		label: label,
		rule:  "omitempty,csslength",
		hint:  "auto or a number with a CSS unit such as 100% or 240px",
		clean: strings.ToLower,
		get:   func(b *models.Block) string { return *field(&b.Style) },
		set:   func(b *models.Block, v string) { *field(&b.Style) = v },
	}
}

func attribute(name Property, label, rule, hint string) propertyDef {
	attr := string(name)
	return propertyDef{
		name:  name,
		label: label,
		rule:  rule,
		hint:  hint,
		clean: collapseSpaces,
		get:   func(b *models.Block) string { return b.Attr(attr) },
		set:   func(b *models.Block, v string) { b.SetAttr(attr, v) },
	}
}

// properties is the panel in display order.
var properties = []propertyDef{
	attribute(PropID, "ID", "omitempty,htmlid,max=64", "a letter followed by letters, digits, '-', '_', ':' or '.'"),
	attribute(PropClass, "Class", "omitempty,classlist,max=256", "space separated CSS class names"),
	padding(PropPaddingTop, "Padding top", func(s *models.Style) *string { return &s.PaddingTop }),
	padding(PropPaddingBottom, "Padding bottom", func(s *models.Style) *string { return &s.PaddingBottom }),
	padding(PropPaddingLeft, "Padding left", func(s *models.Style) *string { return &s.PaddingLeft }),
	padding(PropPaddingRight, "Padding right", func(s *models.Style) *string { return &s.PaddingRight }),
	color(PropBackgroundColor, "Background color", func(s *models.Style) *string { return &s.BackgroundColor }),
	color(PropTextColor, "Text color", func(s *models.Style) *string { return &s.TextColor }),
	length(PropWidth, "Width", func(s *models.Style) *string { return &s.Width }),
	length(PropHeight, "Height", func(s *models.Style) *string { return &s.Height }),
}

// Properties returns the editable properties in panel order.
func Properties() []Property {
	out := make([]Property, len(properties))
	for i, p := range properties {
		out[i] = p.name
	}
	return out
}

func lookupProperty(p Property) (*propertyDef, error) {
	for i := range properties {
		if properties[i].name == p {
			return &properties[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, p)
}

// validate returns the value in stored form, or ErrInvalidPropertyValue.
func (d *propertyDef) validate(raw string) (string, error) {
	value := d.clean(strings.TrimSpace(raw))
	if err := validate.Var(value, d.rule); err != nil {
		return "", fmt.Errorf("%w: %s %q must be %s", ErrInvalidPropertyValue, d.name, raw, d.hint)
	}
	return value, nil
}

// ValidateProperty checks a value without applying it and returns the form
// it would be stored in.
func ValidateProperty(p Property, value string) (string, error) {
	def, err := lookupProperty(p)
	if err != nil {
		return "", err
	}
	return def.validate(value)
}

// Get returns a property of the selected block.
func (s *Session) Get(p Property) (string, error) {
	if s.selected == "" {
		return "", ErrNoSelection
	}
	def, err := lookupProperty(p)
	if err != nil {
		return "", err
	}
	b := s.doc.Find(s.selected)
	if b == nil {
		return "", fmt.Errorf("%w: %s", ErrBlockNotFound, s.selected)
	}
	return def.get(b), nil
}

// Set validates and assigns a property of the selected block, recording the
// change in history. It is shorthand for Apply(SetProperty{...}).
func (s *Session) Set(p Property, value string) error {
	_, err := s.Apply(SetProperty{Property: p, Value: value})
	return err
}
