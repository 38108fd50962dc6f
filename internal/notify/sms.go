package notify

import (
	"log"
	"os"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSForwarder pushes mention alerts over SMS for users who registered a
// phone number.
type SMSForwarder struct {
	client *twilio.RestClient
	from   string
}

// NewSMSForwarderFromEnv returns nil when Twilio credentials are not
// configured, which disables SMS delivery.
func NewSMSForwarderFromEnv() *SMSForwarder {
	from := os.Getenv("TWILIO_FROM_NUMBER")
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" || os.Getenv("TWILIO_AUTH_TOKEN") == "" || from == "" {
		return nil
	}

	return &SMSForwarder{
		client: twilio.NewRestClient(),
		from:   from,
	}
}

func (f *SMSForwarder) Send(to, body string) {
	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(f.from)
	params.SetBody(body)

	if _, err := f.client.Api.CreateMessage(params); err != nil {
		log.Printf("Failed to send SMS to %s: %v", to, err)
	}
}
