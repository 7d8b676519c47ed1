package checkout

import "strings"

// Metadata keys the draft travels under inside the processor session.
const (
	MetaCustomerName    = "customer_name"
	MetaShippingAddress = "shipping_address"
	MetaShippingCity    = "shipping_city"
	MetaShippingState   = "shipping_state"
	MetaShippingZip     = "shipping_zip"
)

// Draft is what the shopper typed into the checkout form.
type Draft struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// Validate returns a *ValidationError naming every blank required field.
func (d Draft) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"email", d.Email},
		{"name", d.Name},
		{"address", d.Address},
		{"city", d.City},
		{"state", d.State},
		{"zip", d.Zip},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Metadata encodes everything but the email, which the processor stores natively.
func (d Draft) Metadata() map[string]string {
	return map[string]string{
		MetaCustomerName:    d.Name,
		MetaShippingAddress: d.Address,
		MetaShippingCity:    d.City,
		MetaShippingState:   d.State,
		MetaShippingZip:     d.Zip,
	}
}

// DraftFromMetadata is the reverse of Metadata. ok is false when the session
// carries none of our keys.
func DraftFromMetadata(email string, md map[string]string) (d Draft, ok bool) {
	for _, k := range []string{MetaCustomerName, MetaShippingAddress, MetaShippingCity, MetaShippingState, MetaShippingZip} {
		if _, present := md[k]; present {
			ok = true
			break
		}
	}
	if !ok {
		return Draft{Email: email}, false
	}
	d = Draft{
		Email:   email,
		Name:    md[MetaCustomerName],
		Address: md[MetaShippingAddress],
		City:    md[MetaShippingCity],
		State:   md[MetaShippingState],
		Zip:     md[MetaShippingZip],
	}
	if d.Name == "" {
		d.Name = "Unknown Customer"
	}
	return d, true
}
