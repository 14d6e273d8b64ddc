package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/services/dashboard"
	"github.com/knowlearn/kldash/internal/services/workforce"
	"github.com/knowlearn/kldash/internal/tui/components"
)

type fakeSource struct {
	overview *dashboard.Overview
	mix      []workforce.RoleCount
	err      error
	mixErr   error
}

func (f *fakeSource) Overview(context.Context) (*dashboard.Overview, error) {
	return f.overview, f.err
}

func (f *fakeSource) RoleMix(context.Context) ([]workforce.RoleCount, error) {
	return f.mix, f.mixErr
}

func sampleOverview() *dashboard.Overview {
	return &dashboard.Overview{
		TotalPeople:         42,
		AvgUtilization:      63,
		OutsourceRatio:      14.3,
		HighRiskCount:       3,
		InternalUtilization: 58,
		ExternalUtilization: 81,
		BenchMM:             12.5,
		OpenProjects:        5,
		RiskRadar: models.RiskProfileAverage{
			Schedule: 62, Cost: 48, Manpower: 71, Technical: 40, External: 55,
		}.Axes(),
		ActivePartners:      4,
		AvailablePartnerDev: 37,
		PartnerRating:       4.2,
	}
}

func load(v *View) {
	v.SetLoaded(v.Load()().(LoadedMsg))
}

func TestView_LoadingState(t *testing.T) {
	v := New(&fakeSource{}, &fakeSource{}, components.DefaultStyles())
	output := v.Render(120)

	if !strings.Contains(output, "WORKFORCE OVERVIEW") {
		t.Error("expected title in output")
	}
	if !strings.Contains(output, "Loading...") {
		t.Error("expected loading message before the first result")
	}
}

func TestView_Render(t *testing.T) {
	src := &fakeSource{
		overview: sampleOverview(),
		mix:      []workforce.RoleCount{{Role: "Backend", Count: 12}, {Role: "QA", Count: 5}},
	}
	v := New(src, src, components.DefaultStyles())
	load(v)

	if v.Overview() == nil || v.Overview().TotalPeople != 42 {
		t.Fatal("expected overview to be stored")
	}

	output := v.Render(120)
	checks := []string{
		"Total Workforce", "42", "Bench 12.5 MM",
		"Avg Utilization", "63%",
		"Outsource Ratio", "14.3%", "Within 20% ceiling",
		"High Risk",
		"Utilization", "Internal", "External", "Role mix", "Backend",
		"Project Risk", "Average over 5 open projects", "Manpower",
		"PARTNERS", "Active contracts", "37", "4.2",
	}
	for _, want := range checks {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestView_OutsourceAboveCeiling(t *testing.T) {
	o := sampleOverview()
	o.OutsourceRatio = 27.5
	src := &fakeSource{overview: o}
	v := New(src, src, components.DefaultStyles())
	load(v)

	if !strings.Contains(v.Render(120), "Above 20% ceiling") {
		t.Error("expected ceiling warning in output")
	}
}

func TestView_LoadError(t *testing.T) {
	src := &fakeSource{err: errors.New("no such table: people")}
	v := New(src, src, components.DefaultStyles())
	load(v)

	output := v.Render(120)
	if !strings.Contains(output, "Error: no such table: people") {
		t.Errorf("expected error in output, got:\n%s", output)
	}
	if v.Overview() != nil {
		t.Error("expected no overview after a failed load")
	}
}

func TestView_RoleMixError(t *testing.T) {
	src := &fakeSource{overview: sampleOverview(), mixErr: errors.New("timeout")}
	v := New(src, src, components.DefaultStyles())
	load(v)

	if !strings.Contains(v.Render(120), "Error: timeout") {
		t.Error("expected role mix error in output")
	}
}

func TestView_NarrowRender(t *testing.T) {
	src := &fakeSource{overview: sampleOverview()}
	v := New(src, src, components.DefaultStyles())
	load(v)

	if !strings.Contains(v.Render(50), "Total Workforce") {
		t.Error("expected cards on a narrow terminal")
	}
}
