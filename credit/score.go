package credit

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"revvo-sap-connector/sap"
)

// Gateway is the slice of the SAP client the scoring engine needs
type Gateway interface {
	CallRemote(ctx context.Context, procedure string, payload interface{}) (json.RawMessage, error)
}

// Scorer computes behavioral credit scores from SAP accounts-receivable
// data using a fixed-coefficient logistic model.
type Scorer struct {
	gateway Gateway
	stats   GlobalStatistics
	weights ModelWeights
	params  ModelParameters
}

// NewScorer creates a scorer with the calibrated model defaults.
func NewScorer(gateway Gateway) *Scorer {
	return &Scorer{
		gateway: gateway,
		stats:   DefaultGlobalStatistics(),
		weights: DefaultModelWeights(),
		params:  DefaultModelParameters(),
	}
}

func zScore(value, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// Standardize converts raw metrics into z-scores against the population
// statistics. A zero standard deviation maps to a zero z-score.
func (s *Scorer) Standardize(m Metrics) StandardizedMetrics {
	return StandardizedMetrics{
		ZHC:      zScore(m.HC, s.stats.MeanHC, s.stats.StdHC),
		ZVC:      zScore(m.VC, s.stats.MeanVC, s.stats.StdVC),
		ZPP:      zScore(m.PP, s.stats.MeanPP, s.stats.StdPP),
		ZIN:      zScore(m.IN, s.stats.MeanIN, s.stats.StdIN),
		ZVA:      zScore(m.VA, s.stats.MeanVA, s.stats.StdVA),
		ZSECount: zScore(m.SECount, s.stats.MeanSECount, s.stats.StdSECount),
		ZSEValue: zScore(m.SEValue, s.stats.MeanSEValue, s.stats.StdSEValue),
	}
}

// CalculateScore evaluates the linear model: purchase frequency and value
// raise the score, payment terms and delinquency lower it.
func (s *Scorer) CalculateScore(z StandardizedMetrics) float64 {
	w := s.weights
	return w.W1*z.ZHC -
		w.W2*z.ZPP -
		w.W3*z.ZIN -
		w.W4*z.ZVA -
		w.W5*z.ZSECount -
		w.W6*z.ZSEValue +
		w.W7*z.ZVC
}

// Sigmoid maps a raw score onto (0, 1) as probability of default.
func Sigmoid(score float64) float64 {
	return 1 / (1 + math.Exp(-score))
}

// Multiplier scales the average purchase value into a suggested limit.
// Higher confidence inflates the limit, capped at the model maximum.
func (s *Scorer) Multiplier(confidence float64) float64 {
	return math.Min(1+confidence*s.params.MaxFactor, s.params.LimitFactorMax)
}

// RiskLevel classifies a probability of default into the five risk bands.
func RiskLevel(probabilityDefault float64) string {
	switch {
	case probabilityDefault >= 0.7:
		return RiskVeryHigh
	case probabilityDefault >= 0.5:
		return RiskHigh
	case probabilityDefault >= 0.3:
		return RiskMedium
	case probabilityDefault >= 0.1:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

// Score runs the full model over already-extracted metrics.
func (s *Scorer) Score(customer string, m Metrics) ScoreResponse {
	z := s.Standardize(m)
	score := s.CalculateScore(z)
	probabilityDefault := Sigmoid(score)
	confidence := 1 - probabilityDefault
	multiplier := s.Multiplier(confidence)

	return ScoreResponse{
		Customer:             customer,
		Score:                score,
		ProbabilityDefault:   probabilityDefault,
		Confidence:           confidence,
		Multiplier:           multiplier,
		AveragePurchaseValue: m.VC,
		SuggestedCreditLimit: multiplier * m.VC,
		RiskLevel:            RiskLevel(probabilityDefault),
		CalculationDate:      time.Now().Format(time.RFC3339),
		Metrics:              m,
		StandardizedMetrics:  z,
	}
}

type openItemsPayload struct {
	CompanyCode string `json:"COMPANYCODE"`
	Customer    string `json:"CUSTOMER"`
	KeyDate     string `json:"KEYDATE"`
}

// FetchOpenItems pulls the customer's accounts-receivable line items from
// SAP. referenceDate is a YYYYMMDD key date; empty means today.
func (s *Scorer) FetchOpenItems(ctx context.Context, customer, companyCode, referenceDate string) ([]OpenItem, error) {
	keyDate := referenceDate
	if keyDate == "" {
		keyDate = time.Now().Format(sapDateLayout)
	}

	payload := openItemsPayload{
		CompanyCode: companyCode,
		Customer:    sap.PadCustomerNumber(customer),
		KeyDate:     keyDate,
	}

	raw, err := s.gateway.CallRemote(ctx, sap.ProcOpenItems, payload)
	if err != nil {
		return nil, err
	}

	env := sap.Envelope(raw, sap.ProcOpenItems)
	items := sap.RawList(sap.Field(env, "T_ITEMS"))
	return DecodeOpenItems(items), nil
}

// fetchBureauMetrics would query the external credit bureau. There is no
// live integration, so both indicators report zero.
func (s *Scorer) fetchBureauMetrics(customer string) (count, value float64) {
	return 0, 0
}

// CalculateCreditScore fetches open items from SAP, extracts the
// behavioral metrics and scores the customer. referenceDate optionally
// overrides the SAP key date.
func (s *Scorer) CalculateCreditScore(ctx context.Context, customer, companyCode, referenceDate string) (*ScoreResponse, error) {
	items, err := s.FetchOpenItems(ctx, customer, companyCode, referenceDate)
	if err != nil {
		return nil, err
	}

	m := ExtractMetrics(items, time.Now())
	m.SECount, m.SEValue = s.fetchBureauMetrics(customer)

	result := s.Score(customer, m)
	return &result, nil
}

// CalculateBatch scores every customer in the request. A failing customer
// is recorded as an error and does not abort the rest of the batch.
func (s *Scorer) CalculateBatch(ctx context.Context, req BatchRequest) BatchResponse {
	resp := BatchResponse{
		Results: make([]ScoreResponse, 0, len(req.Customers)),
		Errors:  []BatchError{},
	}

	for _, customer := range req.Customers {
		result, err := s.CalculateCreditScore(ctx, customer, req.CompanyCode, "")
		if err != nil {
			log.Printf("❌ batch score failed for customer %s: %v", customer, err)
			resp.ErrorCount++
			resp.Errors = append(resp.Errors, BatchError{Customer: customer, Error: err.Error()})
			continue
		}
		resp.SuccessCount++
		resp.Results = append(resp.Results, *result)
	}

	return resp
}

// GlobalStats exposes the model's population statistics.
func (s *Scorer) GlobalStats() GlobalStatistics {
	return s.stats
}

// Weights exposes the model's linear coefficients.
func (s *Scorer) Weights() ModelWeights {
	return s.weights
}

// Parameters exposes the model's limit parameters.
func (s *Scorer) Parameters() ModelParameters {
	return s.params
}
