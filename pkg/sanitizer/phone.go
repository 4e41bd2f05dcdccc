package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Guides and customers are mostly Belgian; numbers without a country code are
// tried against these regions in order.
var supportedRegions = []string{
	"BE",
	"NL",
	"FR",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}
