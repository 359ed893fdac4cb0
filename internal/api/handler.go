package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/antqd/emailsender/internal/attachment"
	"github.com/antqd/emailsender/internal/dispatch"
	"github.com/antqd/emailsender/internal/email"
	"github.com/antqd/emailsender/internal/logger"
	"github.com/antqd/emailsender/internal/module"
	"github.com/antqd/emailsender/internal/submission"
)

const (
	msgSent          = "Email inviata"
	msgSendFailed    = "Errore invio email"
	msgInvalidBody   = "Richiesta non valida"
	msgBodyTooLarge  = "Richiesta troppo grande"
	msgMissingFields = "Campi obbligatori mancanti: "
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) error
}

type Composer interface {
	Compose(d module.Descriptor, f submission.Form, atts []email.Attachment) (string, error)
}

type RecipientResolver interface {
	Resolve(d module.Descriptor) ([]string, error)
}

type Handler struct {
	dispatcher   Dispatcher
	composer     Composer
	recipients   RecipientResolver
	maxBodyBytes int64
}

func NewHandler(d Dispatcher, c Composer, r RecipientResolver, maxBodyBytes int64) *Handler {
	return &Handler{
		dispatcher:   d,
		composer:     c,
		recipients:   r,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	SendJSON(r.Context(), w, http.StatusOK, Response{OK: true, Message: "ok"})
}

// Submit returns the endpoint for one module: parse, check required fields,
// normalize attachments, compose, resolve recipients, dispatch.
func (h *Handler) Submit(d module.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithModule(r.Context(), d.Key)

		if h.maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				SendErr(ctx, w, http.StatusRequestEntityTooLarge, err, msgBodyTooLarge)
				return
			}
			SendErr(ctx, w, http.StatusBadRequest, err, msgInvalidBody)
			return
		}

		form, err := submission.Parse(d.Form, body)
		if err != nil {
			if errors.Is(err, submission.ErrUnknownForm) {
				SendErr(ctx, w, http.StatusInternalServerError, err, msgSendFailed)
				return
			}
			SendErr(ctx, w, http.StatusBadRequest, err, msgInvalidBody)
			return
		}

		if missing := submission.Missing(form, d.RequiredFields); len(missing) > 0 {
			SendErr(ctx, w, http.StatusBadRequest,
				fmt.Errorf("missing required fields: %v", missing),
				msgMissingFields+strings.Join(missing, ", "))
			return
		}

		if err := h.deliver(ctx, d, form); err != nil {
			SendErr(ctx, w, http.StatusInternalServerError, err, msgSendFailed)
			return
		}

		slog.InfoContext(ctx, "submission delivered")
		SendJSON(ctx, w, http.StatusOK, Response{OK: true, Message: msgSent})
	}
}

func (h *Handler) deliver(ctx context.Context, d module.Descriptor, form submission.Form) error {
	atts := attachment.Normalize(form.AttachmentInput(), d.AttachmentOptions())

	html, err := h.composer.Compose(d, form, atts)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	internal, err := h.recipients.Resolve(d)
	if err != nil {
		return err
	}

	req := dispatch.Request{
		Subject:     d.Subject(form.SubmitterName()),
		HTML:        html,
		Attachments: atts,
		Internal:    internal,
		ReplyTo:     form.SubmitterEmail(),
		Brand:       d.Brand,
	}
	if d.SendsClientCopy() {
		req.Client = form.SubmitterEmail()
		req.ClientAttachments = d.ClientGetsAttachments()
	}

	return h.dispatcher.Dispatch(ctx, req)
}
