package documents

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	KindSummons      = "summons"
	KindPeriodReport = "period_report"

	defaultCPF  = "NAO INFORMADO"
	defaultCity = "Municipio"
)

// Document is a rendered file ready to be stored.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
}

// SummonsData fills the official summons. Empty CPF and City fall back to
// printable placeholders.
type SummonsData struct {
	CPF              string
	City             string
	ReportTitle      string
	FalseReportCount int
	IssuedAt         time.Time
}

// PeriodEntry is one report line of a period report. Urgency is the
// already translated label.
type PeriodEntry struct {
	Index       int
	Title       string
	Urgency     string
	Status      string
	Author      string
	CPF         string
	Location    string
	Image       string
	Description string
	CreatedAt   time.Time
}

type PeriodReportData struct {
	Period  string
	Start   time.Time
	End     time.Time
	Entries []PeriodEntry
}

type Generator interface {
	Summons(ctx context.Context, data SummonsData) (*Document, error)
	PeriodReport(ctx context.Context, data PeriodReportData) (*Document, error)
}

var monthsPT = [...]string{"janeiro", "fevereiro", "marco", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"date": func(t time.Time) string {
		return fmt.Sprintf("%02d de %s de %d", t.Day(), monthsPT[t.Month()-1], t.Year())
	},
}

type TemplateGenerator struct {
	templates *template.Template
	now       func() time.Time
}

func NewTemplateGenerator() (*TemplateGenerator, error) {
	t, err := template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	return &TemplateGenerator{templates: t, now: time.Now}, nil
}

func (g *TemplateGenerator) Summons(ctx context.Context, data SummonsData) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.CPF) == "" {
		data.CPF = defaultCPF
	}
	if strings.TrimSpace(data.City) == "" {
		data.City = defaultCity
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = g.now()
	}

	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, KindSummons+".tmpl", data); err != nil {
		return nil, fmt.Errorf("render summons: %w", err)
	}

	return &Document{
		Name:        fmt.Sprintf("intimacao-%d-%s.txt", data.IssuedAt.UnixMilli(), uuid.NewString()[:8]),
		ContentType: "text/plain; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func (g *TemplateGenerator) PeriodReport(ctx context.Context, data PeriodReportData) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, KindPeriodReport+".tmpl", data); err != nil {
		return nil, fmt.Errorf("render period report: %w", err)
	}

	return &Document{
		Name:        fmt.Sprintf("relatorio-%s.txt", data.Period),
		ContentType: "text/plain; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}
