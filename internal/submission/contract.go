package submission

import (
	"strings"

	"github.com/antqd/emailsender/internal/attachment"
)

// Person is the beneficiary of a supply contract.
type Person struct {
	Nome          Text `json:"nome"`
	Cognome       Text `json:"cognome"`
	CodiceFiscale Text `json:"codiceFiscale"`
	DataNascita   Text `json:"dataNascita"`
	LuogoNascita  Text `json:"luogoNascita"`
}

// FullName is "Nome Cognome" with empty parts skipped.
func (p Person) FullName() string {
	return joinNonEmpty(" ", p.Nome.String(), p.Cognome.String())
}

// Company is filled when the contract holder is a business.
type Company struct {
	RagioneSociale     Text `json:"ragioneSociale"`
	PartitaIVA         Text `json:"partitaIva"`
	CodiceFiscale      Text `json:"codiceFiscale"`
	PEC                Text `json:"pec"`
	CodiceDestinatario Text `json:"codiceDestinatario"`
}

// Address is the supply address.
type Address struct {
	Via       Text `json:"via"`
	Civico    Text `json:"civico"`
	CAP       Text `json:"cap"`
	Comune    Text `json:"comune"`
	Provincia Text `json:"provincia"`
}

// Supply describes the meter being switched.
type Supply struct {
	POD              Text `json:"pod"`
	PDR              Text `json:"pdr"`
	PotenzaKW        Text `json:"potenzaKw"`
	ConsumoAnnuo     Text `json:"consumoAnnuo"`
	FornitoreAttuale Text `json:"fornitoreAttuale"`
}

// Contract is the long-form contract submission. Its attachments come as
// named groups (identity document, land registry extract, bill, signature).
type Contract struct {
	Beneficiario      Person           `json:"beneficiario"`
	Azienda           Company          `json:"azienda"`
	Indirizzo         Address          `json:"indirizzo"`
	Fornitura         Supply           `json:"fornitura"`
	IBAN              Text             `json:"iban"`
	IntestatarioConto Text             `json:"intestatarioConto"`
	Email             Text             `json:"email"`
	Telefono          Text             `json:"telefono"`
	Note              Text             `json:"note"`
	Allegati          attachment.Input `json:"allegati"`
}

// Identity is the company name for business contracts and the beneficiary's
// full name otherwise.
func (c *Contract) Identity() string {
	if name := c.Azienda.RagioneSociale.String(); name != "" {
		return name
	}
	return c.Beneficiario.FullName()
}

func (c *Contract) Value(field string) string {
	switch field {
	case "identity":
		return c.Identity()
	case "email":
		return c.Email.String()
	case "iban":
		return normalizeIBAN(string(c.IBAN))
	case "telefono", "phone":
		return c.Telefono.String()
	case "codiceFiscale":
		return c.Beneficiario.CodiceFiscale.String()
	case "pod":
		return c.Fornitura.POD.String()
	default:
		return ""
	}
}

func (c *Contract) SubmitterName() string { return c.Identity() }

func (c *Contract) SubmitterEmail() string { return c.Email.String() }

func (c *Contract) AttachmentInput() attachment.Input { return c.Allegati }

// normalizeIBAN strips spaces and upper-cases, the way banks print it grouped.
func normalizeIBAN(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// FormattedIBAN returns the IBAN in groups of four characters.
func (c *Contract) FormattedIBAN() string {
	iban := normalizeIBAN(string(c.IBAN))
	var b strings.Builder
	for i, r := range iban {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
