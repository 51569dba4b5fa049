package appconfig

import "pimms/internal/core/payload"

// common candidates shared by most form tools
var (
	tokenFields = []string{
		"pimms_id", "pimmsid", "pimms-id",
		"data.pimms_id", "fields.pimms_id", "hidden.pimms_id",
		"metadata.pimms_id", "custom_fields.pimms_id", "utm_content",
		"*.pimms_id",
	}
	emailFields = []string{"email", "data.email", "fields.email", "contact.email", "customer.email", "*.email"}
	nameFields  = []string{"name", "full_name", "data.name", "fields.name", "contact.name", "customer.name"}
	firstFields = []string{"first_name", "firstname", "data.first_name", "contact.first_name", "*.first_name"}
	lastFields  = []string{"last_name", "lastname", "data.last_name", "contact.last_name", "*.last_name"}
)

// Builtin returns a fresh copy of the built-in table
func Builtin() Table {
	t := Table{
		DefaultName: {
			Format:            payload.FormatAuto,
			TokenFields:       tokenFields,
			ExternalIDFields:  []string{"external_id", "customer_id", "user_id", "contact_id", "contact.id", "customer.id"},
			NameFields:        nameFields,
			FirstNameFields:   firstFields,
			LastNameFields:    lastFields,
			EmailFields:       emailFields,
			AvatarFields:      []string{"avatar", "avatar_url", "picture"},
			EventNameFields:   []string{"event", "event_name", "type", "eventtype"},
			AmountFields:      []string{"amount", "total", "price"},
			CurrencyFields:    []string{"currency"},
			AmountUnit:        UnitMinor,
			EmailAsExternalID: true,
		},
		"tally": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"data.fields.pimms_id", "data.fields.pimmsid", "data.hidden.pimms_id", "*.pimms_id"},
			ExternalIDFields:  []string{"data.respondentid"},
			NameFields:        []string{"data.fields.name", "data.fields.full name", "data.fields.your name"},
			FirstNameFields:   []string{"data.fields.first name", "data.fields.first_name"},
			LastNameFields:    []string{"data.fields.last name", "data.fields.last_name"},
			EmailFields:       []string{"data.fields.email", "data.fields.email address", "data.fields.your email"},
			EventNameFields:   []string{"eventtype"},
			EmailAsExternalID: true,
			SignatureHeader:   "Tally-Signature",
		},
		"typeform": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"form_response.hidden.pimms_id", "form_response.hidden.pimmsid"},
			ExternalIDFields:  []string{"form_response.hidden.external_id", "form_response.token"},
			NameFields:        []string{"form_response.hidden.name"},
			EmailFields:       []string{"form_response.hidden.email", "*.email"},
			EventNameFields:   []string{"event_type"},
			EmailAsExternalID: true,
		},
		"webflow": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"payload.data.pimms_id", "payload.data.pimms-id", "data.pimms_id", "*.pimms_id"},
			NameFields:        []string{"payload.data.name", "payload.data.full name"},
			FirstNameFields:   []string{"payload.data.first name", "payload.data.first-name"},
			LastNameFields:    []string{"payload.data.last name", "payload.data.last-name"},
			EmailFields:       []string{"payload.data.email", "payload.data.email address"},
			EventNameFields:   []string{"triggertype"},
			EmailAsExternalID: true,
		},
		"framer": {
			Format:            payload.FormatAuto,
			TokenFields:       []string{"pimms_id", "pimmsid", "*.pimms_id"},
			NameFields:        []string{"name", "full name"},
			EmailFields:       []string{"email", "e-mail"},
			EmailAsExternalID: true,
		},
		"systemeio": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"data.contact.fields.pimms_id", "contact.fields.pimms_id", "*.pimms_id"},
			ExternalIDFields:  []string{"data.contact.id", "contact.id", "data.customer.id"},
			FirstNameFields:   []string{"data.contact.fields.first_name", "contact.fields.first_name"},
			LastNameFields:    []string{"data.contact.fields.surname", "contact.fields.surname"},
			EmailFields:       []string{"data.contact.email", "contact.email", "data.customer.email"},
			EventNameFields:   []string{"type"},
			AmountFields:      []string{"data.order.totalprice", "data.pricePlan.amount"},
			CurrencyFields:    []string{"data.order.currency", "data.priceplan.currency"},
			AmountUnit:        UnitMajor,
			EmailAsExternalID: false,
		},
		"brevo": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"attributes.pimms_id", "contact.attributes.pimms_id", "*.pimms_id"},
			ExternalIDFields:  []string{"id", "contact_id"},
			FirstNameFields:   []string{"attributes.firstname", "attributes.prenom"},
			LastNameFields:    []string{"attributes.lastname", "attributes.nom"},
			EmailFields:       []string{"email", "contact.email"},
			EventNameFields:   []string{"event"},
			EmailAsExternalID: true,
		},
		"calendly": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"payload.tracking.utm_content", "payload.tracking.utm_term", "payload.tracking.salesforce_uuid"},
			ExternalIDFields:  []string{"payload.uri"},
			NameFields:        []string{"payload.name"},
			FirstNameFields:   []string{"payload.first_name"},
			LastNameFields:    []string{"payload.last_name"},
			EmailFields:       []string{"payload.email"},
			EventNameFields:   []string{"event"},
			EmailAsExternalID: true,
			SignatureHeader:   "Calendly-Webhook-Signature",
		},
		"calcom": {
			Format:            payload.FormatJSON,
			TokenFields:       []string{"payload.metadata.pimms_id", "payload.responses.pimms_id.value", "*.pimms_id"},
			NameFields:        []string{"payload.attendees.0.name", "payload.responses.name.value"},
			EmailFields:       []string{"payload.attendees.0.email", "payload.responses.email.value"},
			EventNameFields:   []string{"triggerevent"},
			EmailAsExternalID: true,
		},
		"zapier": {
			Format:            payload.FormatAuto,
			TokenFields:       tokenFields,
			ExternalIDFields:  []string{"external_id", "customer_id"},
			NameFields:        nameFields,
			FirstNameFields:   firstFields,
			LastNameFields:    lastFields,
			EmailFields:       emailFields,
			EventNameFields:   []string{"event", "event_name"},
			AmountFields:      []string{"amount"},
			CurrencyFields:    []string{"currency"},
			AmountUnit:        UnitMinor,
			EmailAsExternalID: true,
		},
	}
	t["make"] = t["zapier"]

	for k, c := range t {
		c.Name = k
		if c.AmountUnit == "" {
			c.AmountUnit = UnitMinor
		}
		t[k] = c
	}
	return t
}
