package invoices

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const dateLayout = "02/01/2006"

func formatAriary(amount float64) string {
	return fmt.Sprintf("%.2f Ar", amount)
}

// RenderPDF renders an invoice as a PDF document.
func RenderPDF(inv *Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Lazan'i Bestileo", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Facture "+inv.NumeroFacture, props.Text{
			Size:  13,
			Style: fontstyle.Bold,
		}),
	)

	echeance := "-"
	if inv.DateEcheance != nil {
		echeance = inv.DateEcheance.Format(dateLayout)
	}
	m.AddRow(18,
		col.New(6).Add(
			text.New("Date de facturation : "+inv.DateFacture.Format(dateLayout), props.Text{Top: 0}),
			text.New("Date d'échéance : "+echeance, props.Text{Top: 5}),
			text.New("Statut : "+string(inv.Statut), props.Text{Top: 10}),
		),
		col.New(6),
	)

	if inv.Client != nil {
		c := inv.Client
		name := c.Prenom + " " + c.Nom
		if c.Entreprise != nil && *c.Entreprise != "" {
			name = *c.Entreprise
		}
		m.AddRow(25,
			col.New(6).Add(
				text.New("Facturé à", props.Text{Style: fontstyle.Bold}),
				text.New(name, props.Text{Top: 5}),
				text.New(c.Adresse+", "+c.Ville, props.Text{Top: 10}),
				text.New(c.Email, props.Text{Top: 15}),
			),
			col.New(6),
		)
	}

	m.AddRow(8,
		text.NewCol(6, "Produit", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Quantité", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Prix unitaire", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, l := range inv.Details {
		name := fmt.Sprintf("Produit #%d", l.ProduitID)
		if l.Produit != nil {
			name = fmt.Sprintf("%s %d", l.Produit.Nom, l.Produit.Millesime)
		}
		m.AddRow(8,
			text.NewCol(6, name, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", l.Quantite), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAriary(l.PrixUnitaire), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAriary(l.PrixTotal), props.Text{Size: 9, Align: align.Right}),
		)
	}

	if inv.Remise > 0 {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "Remise", props.Text{Size: 9}),
			text.NewCol(2, "-"+formatAriary(inv.Remise), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Montant HT", props.Text{Size: 9}),
		text.NewCol(2, formatAriary(inv.MontantHT), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, fmt.Sprintf("TVA (%.0f%%)", inv.TauxTVA), props.Text{Size: 9}),
		text.NewCol(2, formatAriary(inv.MontantTVA), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Montant TTC", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, formatAriary(inv.MontantTTC), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
