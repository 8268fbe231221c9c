package credit

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func sampleScore() ScoreResponse {
	s := NewScorer(nil)
	return s.Score("777", Metrics{HC: 10, VC: 2000, PP: 28, IN: 0, VA: 0})
}

func TestBuildDashboardWithHistory(t *testing.T) {
	result := sampleScore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	hist := &HistoricalData{
		MonthlyData:         map[string]*MonthBucket{},
		BillingVariationPct: -12.5,
		AmountReceivable:    4200,
		MaxDelayLast12M:     15,
		CurrentMaxDelay:     3,
		OverdueAmount:       900,
		Status:              StatusOverdue,
	}
	for i := 0; i < 13; i++ {
		hist.MonthlyData[monthKey(base.AddDate(0, i, 0))] = &MonthBucket{
			BillingAmount: float64(1000 + i),
			PaymentTerms:  []int{30},
		}
	}

	dash := BuildDashboard("777", result, hist)

	if dash.Customer != "777" || dash.PeriodMonths != 13 {
		t.Errorf("unexpected header: %+v", dash)
	}
	if len(dash.PaymentTermSeries) != 13 || len(dash.BillingSeries) != 13 {
		t.Fatalf("expected 13-point series, got %d/%d", len(dash.PaymentTermSeries), len(dash.BillingSeries))
	}

	// months ascend
	for i := 1; i < len(dash.BillingSeries); i++ {
		if dash.BillingSeries[i].Month <= dash.BillingSeries[i-1].Month {
			t.Errorf("series not sorted at %d: %s <= %s", i, dash.BillingSeries[i].Month, dash.BillingSeries[i-1].Month)
		}
	}

	// every point carries the current score
	for _, p := range dash.BillingSeries {
		if p.Score != result.Score {
			t.Errorf("series score %f, want %f", p.Score, result.Score)
		}
		if p.LimitUsagePct > 100 {
			t.Errorf("limit usage above 100: %f", p.LimitUsagePct)
		}
	}

	h := dash.Highlights
	if h.ScoreVariationPoints != 0 {
		t.Errorf("score variation = %f, want 0", h.ScoreVariationPoints)
	}
	if h.AvgBillingVariationPct != -12.5 {
		t.Errorf("billing variation = %f", h.AvgBillingVariationPct)
	}
	if h.Status != StatusOverdue || h.CurrentMaxDelayDays != 3 || h.MaxDelayLast12M != 15 {
		t.Errorf("unexpected highlights: %+v", h)
	}
	if h.AmountReceivable != 4200 || h.OverdueAmount != 900 {
		t.Errorf("unexpected amounts: %+v", h)
	}
}

func TestBuildDashboardFallback(t *testing.T) {
	result := sampleScore()

	dash := BuildDashboard("777", result, nil)

	if len(dash.PaymentTermSeries) != 13 {
		t.Fatalf("expected synthetic 13-point series, got %d", len(dash.PaymentTermSeries))
	}
	for _, p := range dash.PaymentTermSeries {
		if p.BillingAmount != result.Metrics.VC {
			t.Errorf("synthetic billing %f, want vc %f", p.BillingAmount, result.Metrics.VC)
		}
		if p.AvgPaymentTerm != result.Metrics.PP {
			t.Errorf("synthetic payment term %f, want %f", p.AvgPaymentTerm, result.Metrics.PP)
		}
	}

	if dash.Highlights.Status != StatusCurrent {
		t.Errorf("status = %s, want %s for zero delinquency", dash.Highlights.Status, StatusCurrent)
	}
	if dash.Highlights.AmountReceivable != 0 {
		t.Errorf("receivable = %f, want 0", dash.Highlights.AmountReceivable)
	}
}

func TestBuildDashboardFallbackOverdue(t *testing.T) {
	s := NewScorer(nil)
	result := s.Score("777", Metrics{HC: 10, VC: 2000, PP: 28, IN: 12, VA: 350})

	dash := BuildDashboard("777", result, nil)

	h := dash.Highlights
	if h.Status != StatusOverdue {
		t.Errorf("status = %s, want %s", h.Status, StatusOverdue)
	}
	if h.CurrentMaxDelayDays != 12 || h.MaxDelayLast12M != 12 {
		t.Errorf("delay days = %d/%d, want 12/12", h.CurrentMaxDelayDays, h.MaxDelayLast12M)
	}
	if h.OverdueAmount != 350 {
		t.Errorf("overdue = %f, want 350", h.OverdueAmount)
	}
}

func TestDashboardEndToEnd(t *testing.T) {
	now := time.Now()
	items := `[
		{"DOC_DATE":"` + now.AddDate(0, 0, -10).Format(sapDateLayout) + `","FKDATE":"` + now.AddDate(0, 0, 20).Format(sapDateLayout) + `","AMOUNT":"1500"},
		{"DOC_DATE":"` + now.AddDate(0, 0, -70).Format(sapDateLayout) + `","FKDATE":"` + now.AddDate(0, 0, -40).Format(sapDateLayout) + `","PAYMENT_DATE":"` + now.AddDate(0, 0, -38).Format(sapDateLayout) + `","AMOUNT":"2500"}
	]`
	gw := &fakeGateway{responses: map[string]json.RawMessage{
		"ZBAPI_AR_ACC_GETOPENITEMS_V2": openItemsResponse(items),
	}}
	s := NewScorer(gw)

	dash, err := s.Dashboard(context.Background(), "42", "1000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dash.Customer != "42" {
		t.Errorf("customer = %s", dash.Customer)
	}
	// 30-day steps occasionally fold two steps into one calendar month
	if len(dash.BillingSeries) < 12 || len(dash.BillingSeries) > 13 {
		t.Errorf("series length = %d, want 12 or 13", len(dash.BillingSeries))
	}
	// one call serves both the score and the history
	if len(gw.calls) != 1 {
		t.Errorf("expected a single SAP call, got %d", len(gw.calls))
	}
}
