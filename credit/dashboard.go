package credit

import (
	"context"
	"math"
	"sort"
	"time"
)

const dashboardPeriodMonths = 13

func limitUsagePct(amount, limit float64) float64 {
	if limit == 0 {
		return 0
	}
	return math.Min(100.0, amount/math.Max(limit, 1)*100)
}

// BuildDashboard assembles the customer risk dashboard from a score result
// and the 13-month billing history. When no history is available the
// current metrics are replicated across the period so the charts still
// render.
func BuildDashboard(customer string, result ScoreResponse, hist *HistoricalData) DashboardResponse {
	now := time.Now()

	var paymentSeries, billingSeries []MonthlyMetric
	var highlights HighlightIndicators

	if hist != nil && hist.MonthlyData != nil {
		months := make([]string, 0, len(hist.MonthlyData))
		for key := range hist.MonthlyData {
			months = append(months, key)
		}
		sort.Strings(months)
		if len(months) > dashboardPeriodMonths {
			months = months[len(months)-dashboardPeriodMonths:]
		}

		for _, key := range months {
			bucket := hist.MonthlyData[key]

			avgPaymentTerm := result.Metrics.PP
			if len(bucket.PaymentTerms) > 0 {
				avgPaymentTerm = avgInts(bucket.PaymentTerms)
			}

			metric := MonthlyMetric{
				Month:          key,
				AvgPaymentTerm: avgPaymentTerm,
				Score:          result.Score,
				BillingAmount:  bucket.BillingAmount,
				LimitUsagePct:  limitUsagePct(bucket.BillingAmount, result.SuggestedCreditLimit),
			}
			paymentSeries = append(paymentSeries, metric)
			billingSeries = append(billingSeries, metric)
		}

		highlights = HighlightIndicators{
			CurrentScore:           result.Score,
			ScoreVariationPoints:   0.0,
			AvgBillingLast3M:       result.Metrics.VC,
			AvgBillingVariationPct: hist.BillingVariationPct,
			CreditLimit:            result.SuggestedCreditLimit,
			CreditLimitUsedPct:     limitUsagePct(result.Metrics.VC, result.SuggestedCreditLimit),
			AmountReceivable:       hist.AmountReceivable,
			AvgPaymentTerm:         result.Metrics.PP,
			Status:                 hist.Status,
			OverdueAmount:          hist.OverdueAmount,
			CurrentMaxDelayDays:    hist.CurrentMaxDelay,
			MaxDelayLast12M:        hist.MaxDelayLast12M,
		}
	} else {
		for m := dashboardPeriodMonths - 1; m >= 0; m-- {
			metric := MonthlyMetric{
				Month:          monthKey(now.AddDate(0, 0, -30*m)),
				AvgPaymentTerm: result.Metrics.PP,
				Score:          result.Score,
				BillingAmount:  result.Metrics.VC,
				LimitUsagePct:  limitUsagePct(result.Metrics.VC, result.SuggestedCreditLimit),
			}
			paymentSeries = append(paymentSeries, metric)
			billingSeries = append(billingSeries, metric)
		}

		status := StatusCurrent
		if result.Metrics.IN != 0 {
			status = StatusOverdue
		}

		highlights = HighlightIndicators{
			CurrentScore:           result.Score,
			ScoreVariationPoints:   0.0,
			AvgBillingLast3M:       result.Metrics.VC,
			AvgBillingVariationPct: 0.0,
			CreditLimit:            result.SuggestedCreditLimit,
			CreditLimitUsedPct:     limitUsagePct(result.Metrics.VC, result.SuggestedCreditLimit),
			AmountReceivable:       0.0,
			AvgPaymentTerm:         result.Metrics.PP,
			Status:                 status,
			OverdueAmount:          result.Metrics.VA,
			CurrentMaxDelayDays:    int(result.Metrics.IN),
			MaxDelayLast12M:        int(result.Metrics.IN),
		}
	}

	return DashboardResponse{
		Customer:          customer,
		PeriodMonths:      dashboardPeriodMonths,
		PaymentTermSeries: paymentSeries,
		BillingSeries:     billingSeries,
		Highlights:        highlights,
		GeneratedAt:       now.Format(time.RFC3339),
	}
}

// Dashboard fetches the customer's open items once and derives both the
// current score and the 13-month history from the same snapshot.
func (s *Scorer) Dashboard(ctx context.Context, customer, companyCode string) (*DashboardResponse, error) {
	items, err := s.FetchOpenItems(ctx, customer, companyCode, "")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	hist := ExtractHistorical(items, now)

	m := ExtractMetrics(items, now)
	m.SECount, m.SEValue = s.fetchBureauMetrics(customer)
	result := s.Score(customer, m)

	dashboard := BuildDashboard(customer, result, &hist)
	return &dashboard, nil
}
