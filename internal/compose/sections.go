package compose

import (
	"strconv"
	"strings"

	"github.com/antqd/emailsender/internal/email"
	"github.com/antqd/emailsender/internal/module"
	"github.com/antqd/emailsender/internal/submission"
)

// StandardSections lays out the short forms. Name and email always show;
// phone, message and module fields only when filled in.
func StandardSections(s *submission.Standard, extra []module.Field) []Section {
	body := []Row{
		{Label: "Nome", Value: orPlaceholder(s.Name)},
		{Label: "Email", Value: orPlaceholder(s.Email)},
	}
	body = append(body, rows("Telefono", s.Phone)...)

	for _, f := range extra {
		label := f.Label
		if label == "" {
			label = f.Key
		}
		body = append(body, rows(label, s.Extra[f.Key])...)
	}

	body = append(body, rows("Messaggio", s.Message)...)

	return []Section{{Rows: body}}
}

// ContractSections lays out the contract form block by block.
func ContractSections(c *submission.Contract, atts []email.Attachment) []Section {
	b := c.Beneficiario
	a := c.Azienda
	addr := c.Indirizzo
	sup := c.Fornitura

	sections := []Section{
		{Title: "Beneficiario", Rows: rows(
			"Nome", b.Nome.String(),
			"Cognome", b.Cognome.String(),
			"Codice fiscale", strings.ToUpper(b.CodiceFiscale.String()),
			"Data di nascita", b.DataNascita.String(),
			"Luogo di nascita", b.LuogoNascita.String(),
		)},
		{Title: "Azienda", Rows: rows(
			"Ragione sociale", a.RagioneSociale.String(),
			"Partita IVA", a.PartitaIVA.String(),
			"Codice fiscale", strings.ToUpper(a.CodiceFiscale.String()),
			"PEC", a.PEC.String(),
			"Codice destinatario", a.CodiceDestinatario.String(),
		)},
		{Title: "Indirizzo di fornitura", Rows: rows(
			"Indirizzo", joinAddress(addr.Via.String(), addr.Civico.String()),
			"CAP", addr.CAP.String(),
			"Comune", addr.Comune.String(),
			"Provincia", strings.ToUpper(addr.Provincia.String()),
		)},
		{Title: "Fornitura", Rows: rows(
			"POD", strings.ToUpper(sup.POD.String()),
			"PDR", sup.PDR.String(),
			"Potenza impegnata (kW)", sup.PotenzaKW.String(),
			"Consumo annuo", sup.ConsumoAnnuo.String(),
			"Fornitore attuale", sup.FornitoreAttuale.String(),
		)},
		{Title: "Pagamento", Rows: rows(
			"IBAN", c.FormattedIBAN(),
			"Intestatario conto", c.IntestatarioConto.String(),
		)},
		{Title: "Contatti", Rows: rows(
			"Email", c.Email.String(),
			"Telefono", c.Telefono.String(),
		)},
		{Title: "Note", Rows: rows("Note", c.Note.String())},
	}

	names := make([]Row, 0, len(atts))
	for i, att := range atts {
		names = append(names, Row{Label: "File " + strconv.Itoa(i+1), Value: att.Filename})
	}
	sections = append(sections, Section{Title: "Allegati", Rows: names})

	return sections
}

func joinAddress(via, civico string) string {
	via, civico = strings.TrimSpace(via), strings.TrimSpace(civico)
	if via == "" {
		return ""
	}
	if civico == "" {
		return via
	}
	return via + ", " + civico
}
