package entity

import "time"

// DocumentCategory groups uploaded documents for checklist purposes.
type DocumentCategory string

const (
	CategoryIdentity       DocumentCategory = "identity"
	CategoryResidenceProof DocumentCategory = "residence-proof"
	CategoryContract       DocumentCategory = "contract"
	CategoryOther          DocumentCategory = "other"
)

var documentCategoryLabels = map[DocumentCategory]string{
	CategoryIdentity:       "Documento de Identidade",
	CategoryResidenceProof: "Comprovante de Residência",
	CategoryContract:       "Contrato",
	CategoryOther:          "Outros",
}

func DocumentCategories() []DocumentCategory {
	return []DocumentCategory{CategoryIdentity, CategoryResidenceProof, CategoryContract, CategoryOther}
}

func (c DocumentCategory) Valid() bool {
	_, ok := documentCategoryLabels[c]
	return ok
}

func (c DocumentCategory) Label() string { return labelOr(documentCategoryLabels, c) }

// DocumentStatus is the review status of an uploaded document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentActive   DocumentStatus = "active"
	DocumentRejected DocumentStatus = "rejected"
)

// identityTypes are the document subtypes accepted as proof of identity.
var identityTypes = map[string]struct{}{
	"rg":       {},
	"cnh":      {},
	"passport": {},
	"rne":      {},
	"cin":      {},
}

// IsIdentityType reports whether t is an accepted identity-document subtype.
func IsIdentityType(t string) bool {
	_, ok := identityTypes[t]
	return ok
}

// Document belongs to exactly one party.
type Document struct {
	ID        string
	PartyID   string
	Category  DocumentCategory
	Type      string
	Status    DocumentStatus
	FileName  string
	CreatedAt time.Time
}

// Usable reports whether the document may satisfy a requirement.
func (d Document) Usable() bool { return d.Status != DocumentRejected }

// PaymentMethod belongs to exactly one party; at most one is primary.
type PaymentMethod struct {
	ID        string
	PartyID   string
	BankCode  string
	Agency    string
	Account   string
	PixKey    string
	IsPrimary bool
	IsValid   bool
	CreatedAt time.Time
}
