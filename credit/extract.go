package credit

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const sapDateLayout = "20060102"

// FlexString tolerates SAP fields that arrive either as JSON strings or
// as bare numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = FlexString(str)
		return nil
	}
	*f = FlexString(s)
	return nil
}

// OpenItem is one accounts-receivable line item from
// ZBAPI_AR_ACC_GETOPENITEMS_V2. Dates are 8-digit YYYYMMDD strings;
// PAYMENT_DATE is empty while the item is unpaid.
type OpenItem struct {
	DocDate     FlexString `json:"DOC_DATE"`
	DueDate     FlexString `json:"FKDATE"`
	PaymentDate FlexString `json:"PAYMENT_DATE"`
	Amount      FlexString `json:"AMOUNT"`
	AmountSGM   FlexString `json:"AMOUNT_SGM"`
}

// DecodeOpenItems converts normalized raw items into typed line items,
// dropping entries that are not JSON objects.
func DecodeOpenItems(raw []json.RawMessage) []OpenItem {
	items := make([]OpenItem, 0, len(raw))
	for _, r := range raw {
		var item OpenItem
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseSAPDate(s FlexString) (time.Time, bool) {
	t, err := time.Parse(sapDateLayout, string(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseAmount rejects blank and non-numeric amounts; an item carrying
// one is dropped, not counted at zero.
func parseAmount(s FlexString) (float64, bool) {
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractMetrics aggregates open items into the scoring variables:
// purchase count/value and payment terms over the last 90 days, and
// delinquency over the last 365 days. Items with missing or unparsable
// dates or amounts are skipped rather than failing the batch. Bureau
// metrics are left at zero for the caller to fill.
func ExtractMetrics(items []OpenItem, now time.Time) Metrics {
	threeMonthsAgo := now.AddDate(0, 0, -90)
	twelveMonthsAgo := now.AddDate(0, 0, -365)

	var purchaseCount int
	var totalValue float64
	var paymentTerms []int
	var delays []int
	var overdueValues []float64

	for _, item := range items {
		if item.DocDate == "" || item.DueDate == "" {
			continue
		}
		docDate, ok := parseSAPDate(item.DocDate)
		if !ok {
			continue
		}
		dueDate, ok := parseSAPDate(item.DueDate)
		if !ok {
			continue
		}
		amount, ok := parseAmount(item.Amount)
		if !ok {
			continue
		}

		if !docDate.Before(threeMonthsAgo) {
			purchaseCount++
			totalValue += amount
			paymentTerms = append(paymentTerms, daysBetween(docDate, dueDate))
		}

		if !docDate.Before(twelveMonthsAgo) {
			delay := itemDelay(item, dueDate, now)
			if delay > 0 {
				delays = append(delays, delay)
				if !docDate.Before(threeMonthsAgo) {
					overdueValues = append(overdueValues, amount)
				}
			}
		}
	}

	return Metrics{
		HC: float64(purchaseCount),
		VC: totalValue / float64(max(purchaseCount, 1)),
		PP: avgInts(paymentTerms),
		IN: avgInts(delays),
		VA: avgFloats(overdueValues),
	}
}

// itemDelay computes delinquency days for one item: days paid past due if
// a payment date exists, days overdue as of now if unpaid, else zero.
func itemDelay(item OpenItem, dueDate, now time.Time) int {
	if item.PaymentDate != "" {
		if paymentDate, ok := parseSAPDate(item.PaymentDate); ok {
			return max(0, daysBetween(dueDate, paymentDate))
		}
		return 0
	}
	if dueDate.Before(now) {
		return daysBetween(dueDate, now)
	}
	return 0
}

// MonthBucket accumulates one calendar month of billing history
type MonthBucket struct {
	BillingAmount  float64
	PurchaseCount  int
	PaymentTerms   []int
	Delays         []int
	OverdueAmounts []float64
}

// HistoricalData extends the scoring variables with the 13-month billing
// history backing the dashboard time series.
type HistoricalData struct {
	Metrics             Metrics
	MonthlyData         map[string]*MonthBucket
	BillingVariationPct float64
	AmountReceivable    float64
	MaxDelayLast12M     int
	CurrentMaxDelay     int
	OverdueAmount       float64
	Status              string
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ExtractHistorical buckets open items into 13 rolling months (stepped by
// 30 days from now) and derives the dashboard indicators: month-over-month
// billing variation, receivables, and delinquency extremes.
func ExtractHistorical(items []OpenItem, now time.Time) HistoricalData {
	thirteenMonthsAgo := now.AddDate(0, 0, -395)

	monthly := make(map[string]*MonthBucket)
	for i := 0; i < 13; i++ {
		monthly[monthKey(now.AddDate(0, 0, -30*i))] = &MonthBucket{}
	}

	var unpaidAmounts []float64

	for _, item := range items {
		if item.DocDate == "" || item.DueDate == "" {
			continue
		}
		amountStr := item.AmountSGM
		if amountStr == "" {
			amountStr = item.Amount
		}
		if amountStr == "" {
			continue
		}

		docDate, ok := parseSAPDate(item.DocDate)
		if !ok {
			continue
		}
		dueDate, ok := parseSAPDate(item.DueDate)
		if !ok {
			continue
		}
		amount, ok := parseAmount(amountStr)
		if !ok {
			continue
		}

		if docDate.Before(thirteenMonthsAgo) {
			continue
		}

		bucket, ok := monthly[monthKey(docDate)]
		if !ok {
			continue
		}

		bucket.BillingAmount += amount
		bucket.PurchaseCount++
		bucket.PaymentTerms = append(bucket.PaymentTerms, daysBetween(docDate, dueDate))

		if item.PaymentDate != "" {
			if paymentDate, ok := parseSAPDate(item.PaymentDate); ok {
				if delay := max(0, daysBetween(dueDate, paymentDate)); delay > 0 {
					bucket.Delays = append(bucket.Delays, delay)
					bucket.OverdueAmounts = append(bucket.OverdueAmounts, amount)
				}
			}
		} else {
			unpaidAmounts = append(unpaidAmounts, amount)
			if dueDate.Before(now) {
				if delay := daysBetween(dueDate, now); delay > 0 {
					bucket.Delays = append(bucket.Delays, delay)
					bucket.OverdueAmounts = append(bucket.OverdueAmounts, amount)
				}
			}
		}
	}

	current3M := rollingKeys(now, 0, 3)
	previous3M := rollingKeys(now, 3, 6)

	var currentHC, previousHC int
	var currentBilling, previousBilling float64
	var currentTerms []int
	var currentOverdue []float64
	currentMaxDelay := 0

	for _, key := range current3M {
		bucket, ok := monthly[key]
		if !ok {
			continue
		}
		currentHC += bucket.PurchaseCount
		currentBilling += bucket.BillingAmount
		currentTerms = append(currentTerms, bucket.PaymentTerms...)
		currentOverdue = append(currentOverdue, bucket.OverdueAmounts...)
		for _, d := range bucket.Delays {
			if d > currentMaxDelay {
				currentMaxDelay = d
			}
		}
	}
	for _, key := range previous3M {
		if bucket, ok := monthly[key]; ok {
			previousHC += bucket.PurchaseCount
			previousBilling += bucket.BillingAmount
		}
	}

	var twelveMonthDelays []int
	for i := 0; i < 12; i++ {
		if bucket, ok := monthly[monthKey(now.AddDate(0, 0, -30*i))]; ok {
			twelveMonthDelays = append(twelveMonthDelays, bucket.Delays...)
		}
	}

	currentVC := currentBilling / float64(max(currentHC, 1))
	previousVC := previousBilling / float64(max(previousHC, 1))

	billingVariationPct := 0.0
	if previousVC > 0 {
		billingVariationPct = (1 - currentVC/previousVC) * 100
	}

	maxDelay12M := 0
	for _, d := range twelveMonthDelays {
		if d > maxDelay12M {
			maxDelay12M = d
		}
	}

	status := StatusCurrent
	if currentMaxDelay != 0 {
		status = StatusOverdue
	}

	return HistoricalData{
		Metrics: Metrics{
			HC: float64(currentHC),
			VC: currentVC,
			PP: avgInts(currentTerms),
			IN: avgInts(twelveMonthDelays),
			VA: avgFloats(currentOverdue),
		},
		MonthlyData:         monthly,
		BillingVariationPct: billingVariationPct,
		AmountReceivable:    sumFloats(unpaidAmounts),
		MaxDelayLast12M:     maxDelay12M,
		CurrentMaxDelay:     currentMaxDelay,
		OverdueAmount:       sumFloats(currentOverdue),
		Status:              status,
	}
}

func rollingKeys(now time.Time, from, to int) []string {
	keys := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		keys = append(keys, monthKey(now.AddDate(0, 0, -30*i)))
	}
	return keys
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func avgInts(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func avgFloats(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sumFloats(vals) / float64(len(vals))
}

func sumFloats(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum
}
