package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chantierflow/chantierflow/internal/config"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/oklog/ulid/v2"
)

// OrderDocumentData is the read model a purchase order document is
// rendered from.
type OrderDocumentData struct {
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyLogo    string
	FiscalIDs      string
	Footer         string

	Reference    string
	IssueDate    string
	ProjectName  string
	SupplierName string
	Notes        string

	Lines []OrderDocumentLine

	Total string
}

type OrderDocumentLine struct {
	Number      int
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Amount      string
}

// Provider renders purchase order documents to stored artifacts.
type Provider interface {
	GenerateOrderDocument(ctx context.Context, data OrderDocumentData) (string, error)
}

type PDFProvider struct {
	artifactDir string
}

func New(cfg config.Config) Provider {
	return &PDFProvider{artifactDir: cfg.ArtifactDir}
}

// GenerateOrderDocument renders the bon de commande and stores it
// under the artifact directory. The returned path is what the order
// lifecycle records on the PDF_GENERE transition.
func (p *PDFProvider) GenerateOrderDocument(ctx context.Context, data OrderDocumentData) (string, error) {
	cfg := marotocfg.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	if data.CompanyLogo != "" {
		m.AddRow(30,
			image.NewFromFileCol(3, data.CompanyLogo, props.Rect{
				Percent: 80,
			}),
			col.New(9),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Bon de commande "+data.Reference, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(data.CompanyName, props.Text{Style: fontstyle.Bold}),
			text.New(data.CompanyAddress, props.Text{Top: 5}),
			text.New(data.CompanyPhone, props.Text{Top: 10}),
			text.New(data.FiscalIDs, props.Text{Top: 15, Size: 8}),
		),
		col.New(6).Add(
			text.New("Chantier: "+data.ProjectName, props.Text{Top: 0}),
			text.New("Fournisseur: "+data.SupplierName, props.Text{Top: 5}),
			text.New("Date: "+data.IssueDate, props.Text{Top: 10}),
		),
	)

	m.AddRow(10,
		text.NewCol(1, "N°", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(5, "Désignation", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Quantité", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "P.U.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Montant", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		quantity := line.Quantity
		if line.Unit != "" {
			quantity = fmt.Sprintf("%s %s", line.Quantity, line.Unit)
		}
		m.AddRow(10,
			text.NewCol(1, fmt.Sprintf("%d", line.Number), props.Text{Size: 9}),
			text.NewCol(5, line.Description, props.Text{Size: 9}),
			text.NewCol(2, quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if data.Notes != "" {
		m.AddRow(20,
			text.NewCol(12, "Notes: "+data.Notes, props.Text{Size: 9, Top: 5}),
		)
	}

	if data.Footer != "" {
		m.AddRow(15,
			text.NewCol(12, data.Footer, props.Text{Size: 8, Top: 8, Align: align.Center}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.artifactDir, 0o755); err != nil {
		return "", err
	}
	artifactPath := filepath.Join(p.artifactDir, fmt.Sprintf("bc-%s.pdf", ulid.Make().String()))
	if err := os.WriteFile(artifactPath, doc.GetBytes(), 0o644); err != nil {
		return "", err
	}
	return artifactPath, nil
}
