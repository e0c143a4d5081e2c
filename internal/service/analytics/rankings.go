package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/domain/money"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/service/vendors"
)

// Component weights. Each ranking's weights sum to 1.
var (
	StaffWeights = map[string]float64{
		"sales":      0.30,
		"tasks":      0.25,
		"attendance": 0.20,
		"rating":     0.15,
		"growth":     0.10,
	}
	ClientWeights = map[string]float64{
		"spend":     0.40,
		"frequency": 0.30,
		"recency":   0.20,
		"rating":    0.10,
	}
	VendorWeights = map[string]float64{
		"on_time":     0.35,
		"rating":      0.25,
		"volume":      0.25,
		"reliability": 0.15,
	}
)

// component is one normalised input in [0,1]. ok is false when the input
// was never measured.
type component struct {
	name  string
	value float64
	ok    bool
}

func measured(name string, v float64) component {
	return component{name: name, value: clamp01(v), ok: true}
}

func missing(name string) component {
	return component{name: name}
}

// score combines components with weights on a 0-100 scale. Weight of the
// missing components is spread proportionally over the measured ones.
func score(weights map[string]float64, cs []component) (float64, map[string]float64, []string) {
	values := make(map[string]float64, len(cs))
	var unavailable []string
	var weighted, total float64
	for _, c := range cs {
		if !c.ok {
			unavailable = append(unavailable, c.name)
			continue
		}
		w := weights[c.name]
		values[c.name] = money.Round2(c.value)
		weighted += w * c.value
		total += w
	}
	if total == 0 {
		return 0, values, unavailable
	}
	return money.Round2(weighted / total * 100), values, unavailable
}

func tier(score float64) string {
	switch {
	case score >= 80:
		return "top"
	case score >= 60:
		return "strong"
	case score >= 40:
		return "steady"
	default:
		return "developing"
	}
}

// rank sorts by score descending, then by name, and numbers the entries.
func rank(rs []models.Ranking) []models.Ranking {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].Name < rs[j].Name
	})
	for i := range rs {
		rs[i].Rank = i + 1
		rs[i].Tier = tier(rs[i].Score)
	}
	return rs
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func ratio(v, maxV float64) float64 {
	if maxV <= 0 {
		return 0
	}
	return v / maxV
}

// StaffRankings scores the team on sales, task completion, attendance,
// rating and month-over-month sales growth.
func (s *Service) StaffRankings(ctx context.Context, scope access.Scope) ([]models.Ranking, error) {
	staff, err := s.store.Staff.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	tasks, err := s.store.Tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	sales, err := s.store.Sales.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return RankStaff(access.FilterByBranch(staff, scope), tasks, countable(sales), s.clock()), nil
}

// RankStaff scores staff. now fixes the current and previous month used for
// growth and must be in the business timezone.
func RankStaff(staff []models.StaffMember, tasks []models.Task, sales []models.Sale, now time.Time) []models.Ranking {
	var maxSales float64
	for _, m := range staff {
		maxSales = max(maxSales, m.TotalSales)
	}

	assigned := map[string]int{}
	completed := map[string]int{}
	for _, t := range tasks {
		if t.AssignedTo == "" || t.Status == models.TaskCancelled {
			continue
		}
		assigned[t.AssignedTo]++
		if t.Status == models.TaskCompleted {
			completed[t.AssignedTo]++
		}
	}

	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)
	current := map[string]float64{}
	previous := map[string]float64{}
	for _, sale := range sales {
		if sale.StaffID == "" {
			continue
		}
		d := sale.Date.In(now.Location())
		switch {
		case !d.Before(thisMonth):
			current[sale.StaffID] += sale.Total
		case !d.Before(lastMonth):
			previous[sale.StaffID] += sale.Total
		}
	}

	out := make([]models.Ranking, 0, len(staff))
	for _, m := range staff {
		cs := []component{measured("sales", ratio(m.TotalSales, maxSales))}
		if n := assigned[m.ID]; n > 0 {
			cs = append(cs, measured("tasks", float64(completed[m.ID])/float64(n)))
		} else {
			cs = append(cs, missing("tasks"))
		}
		if m.AttendanceRate != nil {
			cs = append(cs, measured("attendance", *m.AttendanceRate))
		} else {
			cs = append(cs, missing("attendance"))
		}
		if m.Rating != nil {
			cs = append(cs, measured("rating", *m.Rating/5))
		} else {
			cs = append(cs, missing("rating"))
		}
		if prev := previous[m.ID]; prev > 0 {
			growth := (current[m.ID] - prev) / prev
			cs = append(cs, measured("growth", 0.5+growth/2))
		} else {
			cs = append(cs, missing("growth"))
		}

		sc, values, unavailable := score(StaffWeights, cs)
		out = append(out, models.Ranking{ID: m.ID, Name: m.Name, Score: sc, Components: values, Unavailable: unavailable})
	}
	return rank(out)
}

// ClientRankings scores customers on spend, purchase frequency, recency and
// rating.
func (s *Service) ClientRankings(ctx context.Context, scope access.Scope) ([]models.Ranking, error) {
	customers, err := s.store.Customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return RankClients(access.FilterByBranch(customers, scope), s.clock()), nil
}

// RankClients scores customers. Recency decays linearly to zero over a year.
func RankClients(customers []models.Customer, now time.Time) []models.Ranking {
	var maxSpend float64
	var maxCount int
	for _, c := range customers {
		maxSpend = max(maxSpend, c.TotalPurchases)
		maxCount = max(maxCount, c.PurchaseCount)
	}

	out := make([]models.Ranking, 0, len(customers))
	for _, c := range customers {
		cs := []component{
			measured("spend", ratio(c.TotalPurchases, maxSpend)),
			measured("frequency", ratio(float64(c.PurchaseCount), float64(maxCount))),
		}
		if c.LastPurchaseDate != nil {
			days := now.Sub(*c.LastPurchaseDate).Hours() / 24
			cs = append(cs, measured("recency", 1-days/365))
		} else {
			cs = append(cs, missing("recency"))
		}
		if c.Rating != nil {
			cs = append(cs, measured("rating", *c.Rating/5))
		} else {
			cs = append(cs, missing("rating"))
		}

		sc, values, unavailable := score(ClientWeights, cs)
		out = append(out, models.Ranking{ID: c.ID, Name: c.Name, Score: sc, Components: values, Unavailable: unavailable})
	}
	return rank(out)
}

// VendorRankings scores vendors on purchase orders placed within scope.
func (s *Service) VendorRankings(ctx context.Context, scope access.Scope) ([]models.Ranking, error) {
	vs, err := s.store.Vendors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	orders, err := s.store.VendorOrders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendor orders: %w", err)
	}
	return RankVendors(vs, access.FilterByBranch(orders, scope)), nil
}

// RankVendors scores vendors from the given purchase orders.
func RankVendors(vs []models.Vendor, orders []models.VendorOrder) []models.Ranking {
	perf := make(map[string]models.VendorPerformance, len(vs))
	var maxValue float64
	for _, v := range vs {
		p := vendors.ComputePerformance(v.ID, orders)
		perf[v.ID] = p
		maxValue = max(maxValue, p.TotalOrderValue)
	}

	out := make([]models.Ranking, 0, len(vs))
	for _, v := range vs {
		p := perf[v.ID]
		var cs []component
		if p.DeliveredOrders > 0 {
			cs = append(cs, measured("on_time", p.OnTimeRate/100))
		} else {
			cs = append(cs, missing("on_time"))
		}
		cs = append(cs, measured("rating", v.Rating/5), measured("volume", ratio(p.TotalOrderValue, maxValue)))
		if p.TotalOrders > 0 {
			cs = append(cs, measured("reliability", 1-float64(p.CancelledOrders)/float64(p.TotalOrders)))
		} else {
			cs = append(cs, missing("reliability"))
		}

		sc, values, unavailable := score(VendorWeights, cs)
		out = append(out, models.Ranking{ID: v.ID, Name: v.Name, Score: sc, Components: values, Unavailable: unavailable})
	}
	return rank(out)
}
