package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
)

func partyView(p *entity.Party) gin.H {
	var previous any
	if p.PreviousAccountStatus != nil {
		previous = *p.PreviousAccountStatus
	}
	return gin.H{
		"id":           p.ID,
		"kind":         p.Kind,
		"kind_label":   p.Kind.Label(),
		"name":         p.Name,
		"tax_document": p.TaxDocument,
		"email":        p.Email,
		"phone":        p.Phone,
		"address": gin.H{
			"street":      p.Address.Street,
			"number":      p.Address.Number,
			"complement":  p.Address.Complement,
			"district":    p.Address.District,
			"city":        p.Address.City,
			"state":       p.Address.State,
			"postal_code": p.Address.PostalCode,
		},
		"workflow_step":           p.WorkflowStep,
		"has_password":            p.HasPassword,
		"account_status":          p.AccountStatus,
		"account_status_label":    p.AccountStatus.Label(),
		"previous_account_status": previous,
		"version":                 p.Version,
		"created_at":              p.CreatedAt.Format(time.RFC3339),
		"updated_at":              p.UpdatedAt.Format(time.RFC3339),
	}
}

func notificationView(n *entity.Notification) gin.H {
	out := gin.H{
		"id":                n.ID,
		"type":              n.Type,
		"type_label":        n.Type.Label(),
		"sender_id":         n.SenderID,
		"related_entity_id": n.RelatedEntityID,
		"status":            n.Status,
		"payload":           n.Payload,
		"created_at":        n.CreatedAt.Format(time.RFC3339),
		"updated_at":        n.UpdatedAt.Format(time.RFC3339),
	}
	if n.RecipientID != nil {
		out["recipient_id"] = *n.RecipientID
	}
	if n.TargetRole != nil {
		out["target_role"] = *n.TargetRole
	}
	return out
}
