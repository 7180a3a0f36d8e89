package receipt

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zombor/fuel-station/internal/station"
)

// Stats summarizes the owner's receipts over a period
type Stats struct {
	Total      int             `json:"total"`
	Processed  int             `json:"processed"`
	Failed     int             `json:"failed"`
	TotalSales decimal.Decimal `json:"totalSales"`
	Machines   []MachineStats  `json:"machines"`
}

// MachineStats are the receipt totals for one pump
type MachineStats struct {
	MachineID  string          `json:"machineId"`
	Name       string          `json:"name,omitempty"`
	Receipts   int             `json:"receipts"`
	TotalSales decimal.Decimal `json:"totalSales"`
}

// Stats totals the owner's receipts uploaded within the period. Receipts are grouped by the
// matched machine, or by the printed pump serial number when no machine matched.
func (s *Service) Stats(ctx context.Context, owner string, period station.Period) (*Stats, error) {
	receipts, err := s.list(ctx, station.ReceiptFilter{
		UserID: owner,
		Since:  period.Since(s.timeSource.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("computing receipt stats: %w", err)
	}

	stats := &Stats{TotalSales: decimal.Zero, Machines: []MachineStats{}}
	index := make(map[string]int)

	for _, r := range receipts {
		stats.Total++
		if !r.Processed {
			stats.Failed++
			continue
		}
		stats.Processed++

		sales := r.TotalSales()
		stats.TotalSales = stats.TotalSales.Add(sales)

		key, name := r.PumpSerialNumber, ""
		if r.Machine != nil {
			key, name = r.Machine.MachineID, r.Machine.Name
		}
		if key == "" {
			continue
		}
		j, ok := index[key]
		if !ok {
			j = len(stats.Machines)
			index[key] = j
			stats.Machines = append(stats.Machines, MachineStats{MachineID: key, Name: name, TotalSales: decimal.Zero})
		}
		stats.Machines[j].Receipts++
		stats.Machines[j].TotalSales = stats.Machines[j].TotalSales.Add(sales)
	}

	return stats, nil
}
