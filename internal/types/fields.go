package types

import "strings"

// Kind tells a rendering surface how a field's raw input should be read.
type Kind int

const (
	// KindText covers value-bearing inputs: text, email, password, tel,
	// select, radio groups and textareas.
	KindText Kind = iota
	// KindToggle covers checkboxes; the stored value is the checked state.
	KindToggle
)

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	default:
		return "text"
	}
}

// MarshalText lets a Kind appear as "text" / "toggle" in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Option is one choice of an enumerated field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one input of the registration form.
type Field struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Input       string   `json:"input"`
	Kind        Kind     `json:"kind"`
	Required    bool     `json:"required"`
	Options     []Option `json:"options,omitempty"`
}

// Catalogue lists every field in the order the form presents them.
var Catalogue = []Field{
	{Key: FieldName, Label: "Full Name", Placeholder: "e.g., Max Johnson", Input: "text", Required: true},
	{Key: FieldEmail, Label: "Email", Placeholder: "admin@example.com", Input: "email", Required: true},
	{Key: FieldPassword, Label: "Password", Placeholder: "At least 8 characters", Input: "password", Required: true},
	{Key: FieldConfirmPassword, Label: "Confirm Password", Placeholder: "Match password above", Input: "password", Required: true},
	{Key: FieldPhone, Label: "Phone Number (Optional)", Placeholder: "+993 61 234567", Input: "tel"},
	{Key: FieldPayment, Label: "Preferred Payment Method", Input: "select", Options: []Option{
		{Value: string(PaymentUnset), Label: "Select one"},
		{Value: string(PaymentCard), Label: "Credit/Debit Card"},
		{Value: string(PaymentCash), Label: "Cash on Delivery"},
		{Value: string(PaymentBalance), Label: "Account Balance"},
	}},
	{Key: FieldGender, Label: "Gender (Optional)", Input: "radio", Options: []Option{
		{Value: string(GenderMale), Label: "Male"},
		{Value: string(GenderFemale), Label: "Female"},
		{Value: string(GenderOther), Label: "Other/Prefer not to say"},
	}},
	{Key: FieldTerms, Label: "I agree to the Terms and Conditions", Input: "checkbox", Kind: KindToggle, Required: true},
	{Key: FieldComments, Label: "Any Comments?", Placeholder: "Tell us about your favorite cafe drink...", Input: "textarea"},
}

// Lookup returns the catalogue entry for key.
func Lookup(key string) (Field, bool) {
	for _, f := range Catalogue {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// KindOf returns the input kind of key. Unknown keys report KindText.
func KindOf(key string) Kind {
	f, _ := Lookup(key)
	return f.Kind
}

// ParseToggle reads the raw value of a checkbox. Browsers send "on" for a
// checked box and omit it otherwise; programmatic clients tend to send
// "true" / "false".
func ParseToggle(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "t", "1", "yes", "checked":
		return true
	default:
		return false
	}
}
