package messaging

import "strings"

// Message templates.
const (
	TemplatePreArrival        = "pre_arrival"
	TemplateDelayNotification = "delay_notification"
)

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	TemplatePreArrival: {
		subject: "Welcome to The Fitz - We're expecting you!",
		body: "Dear {name},\n\n" +
			"We're delighted to welcome you to The Fitz Hotel. \n\n" +
			"Your room {room} is being prepared for your arrival.\n\n" +
			"If you need any assistance or have special requests, please don't hesitate to contact our concierge team.\n\n" +
			"Safe travels!\n\n" +
			"Warm regards,\nThe Fitz Concierge Team",
	},
	TemplateDelayNotification: {
		subject: "Flight Update - The Fitz Concierge",
		body: "Dear {name},\n\n" +
			"We noticed your flight may be delayed. Please don't worry - we'll hold your room and have everything ready for your arrival.\n\n" +
			"If your plans change, please let us know and we'll be happy to assist.\n\n" +
			"Safe travels!\n\n" +
			"Warm regards,\nThe Fitz Concierge Team",
	},
}

// Render fills in the subject and content of a message. Values the caller
// supplied win over the template; an unknown template name changes nothing.
func Render(templateName, guestName, room, subject, content string) (string, string) {
	tpl, ok := templates[templateName]
	if !ok {
		return subject, content
	}
	if subject == "" {
		subject = tpl.subject
	}
	if content == "" {
		content = strings.NewReplacer("{name}", guestName, "{room}", room).Replace(tpl.body)
	}
	return subject, content
}

// TelegramText formats a message for Telegram Markdown.
func TelegramText(subject, content string) string {
	if subject == "" {
		return content
	}
	return "*" + subject + "*\n\n" + content
}
