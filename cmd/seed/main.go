package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/party-lifecycle/config"
	"github.com/oksasatya/party-lifecycle/internal/domain/entity"
	pginfra "github.com/oksasatya/party-lifecycle/internal/infrastructure/postgres"
	"github.com/oksasatya/party-lifecycle/pkg/helpers"
)

type seedParty struct {
	kind    entity.PartyKind
	profile entity.Profile
	status  entity.AccountStatus
	apt     bool
}

var seeds = []seedParty{
	{
		kind: entity.PartyExecutive,
		profile: entity.Profile{
			Name: "Ana Ribeiro", TaxDocument: "111.444.777-35", Email: "ana.ribeiro@example.com", Phone: "+5511988880001",
			Address: entity.Address{Street: "Av. Paulista", Number: "1000", City: "São Paulo", State: "SP", PostalCode: "01310-100"},
		},
		status: entity.StatusPending,
		apt:    true,
	},
	{
		kind: entity.PartyClient,
		profile: entity.Profile{
			Name: "Comercial Horizonte Ltda", TaxDocument: "11.222.333/0001-81", Email: "contato@horizonte.example.com", Phone: "+5521977770002",
			Address: entity.Address{Street: "Rua do Ouvidor", Number: "50", City: "Rio de Janeiro", State: "RJ", PostalCode: "20040-030"},
		},
		status: entity.StatusActive,
		apt:    true,
	},
	{
		kind: entity.PartyClient,
		profile: entity.Profile{
			Name: "Bruno Teixeira", TaxDocument: "529.982.247-25", Email: "bruno@example.com",
			Address: entity.Address{City: "Curitiba", State: "PR"},
		},
		status: entity.StatusPending,
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2, MinConns: 1, MaxConnLifetime: cfg.DBMaxConnLife})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	parties := pginfra.NewPartyRepository(pool)
	payments := pginfra.NewPaymentMethodRepository(pool)
	docs := pginfra.NewDocumentRepository(pool)
	tx := pginfra.NewTransactor(pool)

	for _, s := range seeds {
		p := &entity.Party{
			Kind:    s.kind,
			Profile: s.profile,
			OnboardingFlags: entity.OnboardingFlags{
				WorkflowStep:        entity.StepAptitude,
				AnalysisOutcome:     entity.OutcomePending,
				RegistrationOutcome: entity.OutcomePending,
			},
			AccountStatus: s.status,
		}
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := parties.Create(ctx, p); err != nil {
				return err
			}
			if !s.apt {
				return nil
			}
			if err := payments.Create(ctx, &entity.PaymentMethod{PartyID: p.ID, BankCode: "341", Agency: "0001", Account: "12345-6", IsPrimary: true, IsValid: true}); err != nil {
				return err
			}
			if err := docs.Create(ctx, &entity.Document{PartyID: p.ID, Category: entity.CategoryIdentity, Type: "rg", Status: entity.DocumentActive, FileName: "rg.pdf"}); err != nil {
				return err
			}
			return docs.Create(ctx, &entity.Document{PartyID: p.ID, Category: entity.CategoryResidenceProof, Status: entity.DocumentActive, FileName: "comprovante.pdf"})
		})
		if err != nil {
			log.Fatalf("failed to seed %s: %v", s.profile.Name, err)
		}
		fmt.Printf("seeded party: id=%s kind=%s name=%q status=%s apt=%v\n", p.ID, p.Kind, p.Name, p.AccountStatus, s.apt)
	}

	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL, cfg.JWTIssuer)
	for _, role := range []entity.Role{entity.RoleMaster, entity.RoleAdmin} {
		token, exp, err := jwt.GenerateAccessToken(string(role)+"-seed", string(role))
		if err != nil {
			log.Fatalf("failed to issue %s token: %v", role, err)
		}
		fmt.Printf("%s token (expires %s):\n%s\n", role, exp.Format("2006-01-02 15:04"), token)
	}
}
