package module

import "github.com/antqd/emailsender/internal/submission"

const (
	infoAddress      = "info@energyplanner.it"
	contractsAddress = "contratti@energyplanner.it"
)

// Defaults returns the built-in module table.
func Defaults() Table {
	standard := func(key, path string) Descriptor {
		return Descriptor{
			Key:               key,
			Path:              path,
			Form:              submission.FormStandard,
			RequiredFields:    []string{"name", "email"},
			Audience:          AudienceBoth,
			ClientAttachments: ClientAttachmentsOmit,
		}
	}

	candidatura := standard("candidatura", "/api/sendEmail")
	candidatura.DefaultRecipients = []string{infoAddress}
	candidatura.SubjectPrefix = "Nuova candidatura da"
	candidatura.RequiredFields = []string{"name", "email", "attachment"}
	candidatura.Audience = AudienceInternal
	candidatura.Fallback = "curriculum.pdf"

	candidaturaPDF := candidatura
	candidaturaPDF.Key = "candidatura-pdf"
	candidaturaPDF.Path = "/api/sendEmailPdf"
	candidaturaPDF.ForceContentType = "application/pdf"

	contatti := standard("contatti", "/api/contact")
	contatti.DefaultRecipients = []string{infoAddress}
	contatti.SubjectPrefix = "Nuova richiesta di contatto da"
	contatti.ClientAttachments = ClientAttachmentsInclude

	interna := standard("notifica-interna", "/api/internal")
	interna.ConfigKey = "RECIPIENTS_INTERNAL"
	interna.DefaultRecipients = []string{infoAddress, "amministrazione@energyplanner.it"}
	interna.SubjectPrefix = "Nuova richiesta da"
	interna.Audience = AudienceInternal

	fotovoltaico := standard("fotovoltaico", "/api/modules/fotovoltaico")
	fotovoltaico.ConfigKey = "RECIPIENTS_FOTOVOLTAICO"
	fotovoltaico.DefaultRecipients = []string{"fotovoltaico@energyplanner.it"}
	fotovoltaico.SubjectPrefix = "[Fotovoltaico] Richiesta preventivo da"
	fotovoltaico.ExtraFields = []Field{
		{Key: "citta", Label: "Città"},
		{Key: "tipologiaImmobile", Label: "Tipologia immobile"},
		{Key: "consumoAnnuo", Label: "Consumo annuo (kWh)"},
	}

	pompe := standard("pompe-di-calore", "/api/modules/pompe-di-calore")
	pompe.ConfigKey = "RECIPIENTS_POMPE_DI_CALORE"
	pompe.DefaultRecipients = []string{"termico@energyplanner.it"}
	pompe.SubjectPrefix = "[Pompe di calore] Richiesta da"
	pompe.ExtraFields = []Field{
		{Key: "citta", Label: "Città"},
		{Key: "superficie", Label: "Superficie (mq)"},
	}

	cer := standard("comunita-energetica", "/api/modules/comunita-energetica")
	cer.ConfigKey = "RECIPIENTS_CER"
	cer.DefaultRecipients = []string{"cer@energyplanner.it"}
	cer.SubjectPrefix = "[CER] Adesione comunità energetica da"
	cer.ExtraFields = []Field{
		{Key: "comune", Label: "Comune"},
		{Key: "pod", Label: "POD"},
		{Key: "ruolo", Label: "Ruolo (consumer/prosumer)"},
	}

	partner := standard("partner", "/api/modules/partner")
	partner.ConfigKey = "RECIPIENTS_PARTNER"
	partner.DefaultRecipients = []string{"partner@energyplanner.it"}
	partner.SubjectPrefix = "[Partner] Candidatura partner da"
	partner.ExtraFields = []Field{
		{Key: "azienda", Label: "Azienda"},
		{Key: "partitaIva", Label: "Partita IVA"},
		{Key: "citta", Label: "Città"},
	}

	contratto := Descriptor{
		Key:               "contratto",
		Path:              "/api/contratto",
		Form:              submission.FormContract,
		DefaultRecipients: []string{contractsAddress},
		SubjectPrefix:     "Nuovo contratto da",
		RequiredFields:    []string{"identity", "email", "iban"},
		Brand:             "Energy Planner Contratti",
		Audience:          AudienceBoth,
		ClientAttachments: ClientAttachmentsOmit,
		Fallback:          "documento.pdf",
		Groups: map[string]string{
			"documentoIdentita": "documento_identita.pdf",
			"codiceFiscale":     "codice_fiscale.pdf",
			"visuraCatastale":   "visura_catastale.pdf",
			"bolletta":          "bolletta.pdf",
			"firma":             "firma.png",
		},
	}

	t := Table{}
	for _, d := range []Descriptor{candidatura, candidaturaPDF, contatti, interna, fotovoltaico, pompe, cer, partner, contratto} {
		t[d.Key] = d
	}
	return t
}
