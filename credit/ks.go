package credit

import (
	"sort"
	"time"
)

// CalculateKS computes the Kolmogorov-Smirnov separation statistic over a
// scored population. Clients are ranked by score descending and split into
// deciles; KS is the largest gap between the cumulative good and bad
// percentages. An empty population yields an all-zero response.
func CalculateKS(clients []KSClient) KSResponse {
	resp := KSResponse{
		CalculationDate: time.Now().Format(time.RFC3339),
		Deciles:         []KSDecile{},
	}
	if len(clients) == 0 {
		return resp
	}

	sorted := make([]KSClient, len(clients))
	copy(sorted, clients)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	total := len(sorted)
	totalBad := 0
	for _, c := range sorted {
		if c.IsDefaulted {
			totalBad++
		}
	}
	totalGood := total - totalBad

	decileSize := max(1, total/10)

	var cumGood, cumBad int
	maxKS := 0.0
	maxKSDecile := 0

	for d := 0; d < 10; d++ {
		start := d * decileSize
		end := start + decileSize
		if d == 9 {
			end = total
		}
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}

		nGood, nBad := 0, 0
		for _, c := range sorted[start:end] {
			if c.IsDefaulted {
				nBad++
			} else {
				nGood++
			}
		}
		cumGood += nGood
		cumBad += nBad

		pctGood := float64(cumGood) / float64(max(totalGood, 1)) * 100
		pctBad := float64(cumBad) / float64(max(totalBad, 1)) * 100
		ks := pctBad - pctGood
		if ks < 0 {
			ks = -ks
		}

		if ks > maxKS {
			maxKS = ks
			maxKSDecile = d + 1
		}

		resp.Deciles = append(resp.Deciles, KSDecile{
			Decile:            d + 1,
			NClients:          end - start,
			NGood:             nGood,
			NBad:              nBad,
			PctGoodCumulative: pctGood,
			PctBadCumulative:  pctBad,
			KS:                ks,
		})
	}

	resp.KSValue = maxKS
	resp.KSDecile = maxKSDecile
	resp.TotalClients = total
	resp.GoodClients = totalGood
	resp.BadClients = totalBad
	return resp
}
