// Package credit implements the behavioral credit scoring model: metric
// extraction from SAP open items, score standardization, default
// probability, suggested limits, KS model validation and the customer
// dashboard assembly.
package credit

// Risk level classification on probability of default
const (
	RiskVeryHigh = "VERY_HIGH"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
	RiskVeryLow  = "VERY_LOW"
)

// Payment status of a customer in the dashboard highlights
const (
	StatusCurrent = "EM_DIA"
	StatusOverdue = "VENCIDO"
)

// Metrics holds the raw behavioral variables extracted from SAP open
// items. The se_* pair comes from the external credit bureau, which has
// no live integration and always reports zero.
type Metrics struct {
	HC      float64 `json:"hc"`       // purchase count, last 90 days
	VC      float64 `json:"vc"`       // average purchase value
	PP      float64 `json:"pp"`       // average payment term in days
	IN      float64 `json:"in"`       // average delinquency days
	VA      float64 `json:"va"`       // average overdue value
	SECount float64 `json:"se_count"` // bureau negative hit count
	SEValue float64 `json:"se_value"` // bureau negative hit value
}

// StandardizedMetrics are the z-scores of Metrics against GlobalStatistics
type StandardizedMetrics struct {
	ZHC      float64 `json:"z_hc"`
	ZVC      float64 `json:"z_vc"`
	ZPP      float64 `json:"z_pp"`
	ZIN      float64 `json:"z_in"`
	ZVA      float64 `json:"z_va"`
	ZSECount float64 `json:"z_se_count"`
	ZSEValue float64 `json:"z_se_value"`
}

// GlobalStatistics holds the population mean/std pairs used to
// standardize raw metrics.
type GlobalStatistics struct {
	MeanHC      float64 `json:"mean_hc"`
	StdHC       float64 `json:"std_hc"`
	MeanVC      float64 `json:"mean_vc"`
	StdVC       float64 `json:"std_vc"`
	MeanPP      float64 `json:"mean_pp"`
	StdPP       float64 `json:"std_pp"`
	MeanIN      float64 `json:"mean_in"`
	StdIN       float64 `json:"std_in"`
	MeanVA      float64 `json:"mean_va"`
	StdVA       float64 `json:"std_va"`
	MeanSECount float64 `json:"mean_se_count"`
	StdSECount  float64 `json:"std_se_count"`
	MeanSEValue float64 `json:"mean_se_value"`
	StdSEValue  float64 `json:"std_se_value"`
}

// DefaultGlobalStatistics returns the calibrated population statistics.
func DefaultGlobalStatistics() GlobalStatistics {
	return GlobalStatistics{
		MeanHC:      15.0,
		StdHC:       8.0,
		MeanVC:      5000.0,
		StdVC:       3000.0,
		MeanPP:      30.0,
		StdPP:       15.0,
		MeanIN:      5.0,
		StdIN:       10.0,
		MeanVA:      500.0,
		StdVA:       1500.0,
		MeanSECount: 0.5,
		StdSECount:  2.0,
		MeanSEValue: 1000.0,
		StdSEValue:  5000.0,
	}
}

// ModelWeights are the linear coefficients of the scoring model. W1 and
// W7 enter with positive sign, the rest are penalties.
type ModelWeights struct {
	W1 float64 `json:"w1"` // purchase count
	W2 float64 `json:"w2"` // payment term
	W3 float64 `json:"w3"` // delinquency
	W4 float64 `json:"w4"` // overdue value
	W5 float64 `json:"w5"` // bureau count
	W6 float64 `json:"w6"` // bureau value
	W7 float64 `json:"w7"` // purchase value
}

// DefaultModelWeights returns the calibrated model coefficients.
func DefaultModelWeights() ModelWeights {
	return ModelWeights{W1: 0.25, W2: 0.15, W3: 0.20, W4: 0.15, W5: 0.10, W6: 0.10, W7: 0.05}
}

// ModelParameters bound how far confidence may inflate the credit limit
type ModelParameters struct {
	MaxFactor      float64 `json:"max_factor"`
	LimitFactorMax float64 `json:"limit_factor_max"`
}

// DefaultModelParameters returns the calibrated limit parameters.
func DefaultModelParameters() ModelParameters {
	return ModelParameters{MaxFactor: 3.0, LimitFactorMax: 5.0}
}

// ScoreResponse is the result of a single credit score calculation
type ScoreResponse struct {
	Customer             string              `json:"customer"`
	Score                float64             `json:"score"`
	ProbabilityDefault   float64             `json:"probability_default"`
	Confidence           float64             `json:"confidence"`
	Multiplier           float64             `json:"multiplier"`
	AveragePurchaseValue float64             `json:"average_purchase_value"`
	SuggestedCreditLimit float64             `json:"suggested_credit_limit"`
	RiskLevel            string              `json:"risk_level"`
	CalculationDate      string              `json:"calculation_date"`
	Metrics              Metrics             `json:"metrics"`
	StandardizedMetrics  StandardizedMetrics `json:"standardized_metrics"`
}

// BatchRequest asks for scores of several customers under one company code
type BatchRequest struct {
	Customers   []string `json:"customers"`
	CompanyCode string   `json:"company_code"`
}

// BatchError records why one customer of a batch could not be scored
type BatchError struct {
	Customer string `json:"customer"`
	Error    string `json:"error"`
}

// BatchResponse aggregates per-customer results and isolated failures
type BatchResponse struct {
	SuccessCount int             `json:"success_count"`
	ErrorCount   int             `json:"error_count"`
	Results      []ScoreResponse `json:"results"`
	Errors       []BatchError    `json:"errors"`
}

// KSClient is one observation for the KS separation test
type KSClient struct {
	Score       float64 `json:"score"`
	IsDefaulted bool    `json:"is_defaulted"`
}

// KSDecile summarizes one tenth of the score-ranked population
type KSDecile struct {
	Decile            int     `json:"decile"`
	NClients          int     `json:"n_clients"`
	NGood             int     `json:"n_good"`
	NBad              int     `json:"n_bad"`
	PctGoodCumulative float64 `json:"pct_good_cumulative"`
	PctBadCumulative  float64 `json:"pct_bad_cumulative"`
	KS                float64 `json:"ks"`
}

// KSResponse reports the model's separation power over a population
type KSResponse struct {
	KSValue         float64    `json:"ks_value"`
	KSDecile        int        `json:"ks_decile"`
	TotalClients    int        `json:"total_clients"`
	GoodClients     int        `json:"good_clients"`
	BadClients      int        `json:"bad_clients"`
	CalculationDate string     `json:"calculation_date"`
	Deciles         []KSDecile `json:"deciles"`
}

// MonthlyMetric is one month of the dashboard time series
type MonthlyMetric struct {
	Month          string  `json:"month"`
	AvgPaymentTerm float64 `json:"avg_payment_term"`
	Score          float64 `json:"score"`
	BillingAmount  float64 `json:"billing_amount"`
	LimitUsagePct  float64 `json:"limit_usage_pct"`
}

// HighlightIndicators are the headline numbers of the customer dashboard
type HighlightIndicators struct {
	CurrentScore           float64 `json:"current_score"`
	ScoreVariationPoints   float64 `json:"score_variation_points"`
	AvgBillingLast3M       float64 `json:"avg_billing_last_3m"`
	AvgBillingVariationPct float64 `json:"avg_billing_variation_pct"`
	CreditLimit            float64 `json:"credit_limit"`
	CreditLimitUsedPct     float64 `json:"credit_limit_used_pct"`
	AmountReceivable       float64 `json:"amount_receivable"`
	AvgPaymentTerm         float64 `json:"avg_payment_term"`
	Status                 string  `json:"status"`
	OverdueAmount          float64 `json:"overdue_amount"`
	CurrentMaxDelayDays    int     `json:"current_max_delay_days"`
	MaxDelayLast12M        int     `json:"max_delay_last_12m"`
}

// DashboardResponse is the full customer risk dashboard
type DashboardResponse struct {
	Customer          string              `json:"customer"`
	PeriodMonths      int                 `json:"period_months"`
	PaymentTermSeries []MonthlyMetric     `json:"payment_term_series"`
	BillingSeries     []MonthlyMetric     `json:"billing_series"`
	Highlights        HighlightIndicators `json:"highlights"`
	GeneratedAt       string              `json:"generated_at"`
}
