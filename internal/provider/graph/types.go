// Package graph implements a Provider that sends emails via the Microsoft Graph API.
package graph

import (
	"encoding/base64"

	"github.com/antqd/emailsender/internal/email"
)

type sendMailRequest struct {
	Message         sendMailMessage `json:"message"`
	SaveToSentItems bool            `json:"saveToSentItems"`
}

type sendMailMessage struct {
	Subject      string           `json:"subject"`
	Body         messageBody      `json:"body"`
	From         *recipient       `json:"from,omitempty"`
	ToRecipients []recipient      `json:"toRecipients"`
	ReplyTo      []recipient      `json:"replyTo,omitempty"`
	Attachments  []fileAttachment `json:"attachments,omitempty"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type fileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType,omitempty"`
	ContentBytes string `json:"contentBytes"`
}

// tokenResponse is the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// errorResponse is the Graph API error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// buildSendMailRequest converts an email.Email into a sendMail body. The HTML
// body wins over the text one since Graph carries a single body.
func buildSendMailRequest(msg *email.Email) *sendMailRequest {
	body := messageBody{ContentType: "text", Content: msg.TextBody}
	if msg.HTMLBody != "" {
		body = messageBody{ContentType: "html", Content: msg.HTMLBody}
	}

	m := sendMailMessage{
		Subject:      msg.Subject,
		Body:         body,
		ToRecipients: recipients(msg.To),
	}
	if msg.From.Address != "" {
		m.From = &recipient{EmailAddress: emailAddress{Name: msg.From.Name, Address: msg.From.Address}}
	}
	if msg.ReplyTo != "" {
		m.ReplyTo = recipients([]string{msg.ReplyTo})
	}

	for _, att := range msg.Attachments {
		m.Attachments = append(m.Attachments, fileAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         att.Filename,
			ContentType:  att.ContentType,
			ContentBytes: base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	return &sendMailRequest{Message: m}
}

func recipients(addrs []string) []recipient {
	out := make([]recipient, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, recipient{EmailAddress: emailAddress{Address: a}})
	}
	return out
}
