package onboarding

import (
	"strings"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

// Requirement labels, in the order they are checked.
const (
	ReqName           = "Nome"
	ReqTaxDocument    = "CPF/CNPJ"
	ReqEmail          = "E-mail"
	ReqPhone          = "Telefone"
	ReqAddress        = "Endereço Completo"
	ReqBankAccount    = "Conta Bancária Ativa"
	ReqIdentityDoc    = "Documento de Identidade"
	ReqResidenceProof = "Comprovante de Residência"
)

// Evaluation is the outcome of the requirement checklist.
type Evaluation struct {
	Missing []string
	IsApt   bool
}

type check struct {
	label string
	ok    func(p entity.Profile, pms []entity.PaymentMethod, docs []entity.Document) bool
}

var checks = []check{
	{ReqName, func(p entity.Profile, _ []entity.PaymentMethod, _ []entity.Document) bool { return present(p.Name) }},
	{ReqTaxDocument, func(p entity.Profile, _ []entity.PaymentMethod, _ []entity.Document) bool { return present(p.TaxDocument) }},
	{ReqEmail, func(p entity.Profile, _ []entity.PaymentMethod, _ []entity.Document) bool { return present(p.Email) }},
	{ReqPhone, func(p entity.Profile, _ []entity.PaymentMethod, _ []entity.Document) bool { return present(p.Phone) }},
	{ReqAddress, func(p entity.Profile, _ []entity.PaymentMethod, _ []entity.Document) bool { return p.Address.Complete() }},
	{ReqBankAccount, func(_ entity.Profile, pms []entity.PaymentMethod, _ []entity.Document) bool { return hasPrimaryPayment(pms) }},
	{ReqIdentityDoc, func(_ entity.Profile, _ []entity.PaymentMethod, docs []entity.Document) bool { return hasIdentityDocument(docs) }},
	{ReqResidenceProof, func(_ entity.Profile, _ []entity.PaymentMethod, docs []entity.Document) bool {
		return hasCategory(docs, entity.CategoryResidenceProof)
	}},
}

// Evaluate runs the checklist. It has no side effects and the Missing order is
// the order of the checks above.
func Evaluate(p entity.Profile, pms []entity.PaymentMethod, docs []entity.Document) Evaluation {
	missing := make([]string, 0, len(checks))
	for _, c := range checks {
		if !c.ok(p, pms, docs) {
			missing = append(missing, c.label)
		}
	}
	return Evaluation{Missing: missing, IsApt: len(missing) == 0}
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

func hasPrimaryPayment(pms []entity.PaymentMethod) bool {
	for _, pm := range pms {
		if pm.IsPrimary && pm.IsValid {
			return true
		}
	}
	return false
}

func hasIdentityDocument(docs []entity.Document) bool {
	for _, d := range docs {
		if !d.Usable() {
			continue
		}
		if d.Category == entity.CategoryIdentity || entity.IsIdentityType(strings.ToLower(d.Type)) {
			return true
		}
	}
	return false
}

func hasCategory(docs []entity.Document, c entity.DocumentCategory) bool {
	for _, d := range docs {
		if d.Usable() && d.Category == c {
			return true
		}
	}
	return false
}
