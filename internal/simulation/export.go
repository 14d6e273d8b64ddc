package simulation

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

const (
	// SchemaURL identifies the export document format.
	SchemaURL = "http://knowlearn.ai/schemas/simulation-result-v1.json"

	// KRWPerCostUnit converts input cost units (10,000 KRW) to won.
	KRWPerCostUnit = 10000

	// ExportTimeFormat is the timestamp layout used in exported documents.
	ExportTimeFormat = "2006-01-02T15:04:05.000Z07:00"
)

// Export is the interop document for one simulation run.
type Export struct {
	Schema        string              `json:"$schema"`
	SimulationID  string              `json:"simulationId"`
	ExecutedAt    string              `json:"executedAt"`
	Configuration ExportConfiguration `json:"configuration"`
	Results       ExportResults       `json:"results"`
}

type ExportConfiguration struct {
	Strategy    string            `json:"strategy"`
	Constraints ExportConstraints `json:"constraints"`
	Costs       ExportCosts       `json:"costs"`
}

type ExportConstraints struct {
	MaxExternalRatio float64 `json:"maxExternalRatio"`
	InternalCap      float64 `json:"internalCap"`
}

type ExportCosts struct {
	Internal float64 `json:"internal"`
	External float64 `json:"external"`
}

type ExportResults struct {
	Metrics  ExportMetrics  `json:"metrics"`
	Analysis ExportAnalysis `json:"analysis"`
}

type ExportMetrics struct {
	TotalCostKRW       float64 `json:"totalCostKRW"`
	FulfillmentPercent int     `json:"fulfillmentPercent"`
	RiskScore          int     `json:"riskScore"`
}

type ExportAnalysis struct {
	BottleneckRole string `json:"bottleneckRole"`
	AppliedLogic   string `json:"appliedLogic"`
}

// SimulationID returns the export identifier for a run executed at t.
func SimulationID(t time.Time) string {
	return fmt.Sprintf("SIM-%d", t.UnixMilli())
}

// NewExport builds the export document for a completed run.
func NewExport(id string, in Input, res Result) Export {
	if id == "" {
		id = SimulationID(res.ExecutedAt)
	}
	return Export{
		Schema:       SchemaURL,
		SimulationID: id,
		ExecutedAt:   res.ExecutedAt.UTC().Format(ExportTimeFormat),
		Configuration: ExportConfiguration{
			Strategy: in.Strategy.String(),
			Constraints: ExportConstraints{
				MaxExternalRatio: in.OutsourceLimitPercent,
				InternalCap:      in.AvailableInternalMM,
			},
			Costs: ExportCosts{
				Internal: in.UnitCostInternal,
				External: in.UnitCostExternal,
			},
		},
		Results: ExportResults{
			Metrics: ExportMetrics{
				TotalCostKRW:       res.TotalCost * KRWPerCostUnit,
				FulfillmentPercent: res.FulfillmentPercent,
				RiskScore:          res.RiskIndex,
			},
			Analysis: ExportAnalysis{
				BottleneckRole: res.Bottleneck,
				AppliedLogic:   res.PolicyName,
			},
		},
	}
}

// Encode writes the document as indented JSON.
func (e Export) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encoding simulation export: %w", err)
	}
	return nil
}

// MarshalIndented returns the document as indented JSON.
func (e Export) MarshalIndented() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding simulation export: %w", err)
	}
	return data, nil
}
