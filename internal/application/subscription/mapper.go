package subscription

import (
	"github.com/jhoicas/Accesos-api/internal/application/dto"
	"github.com/jhoicas/Accesos-api/internal/domain/entity"
)

// ToPlanResponse convierte un plan al DTO público.
func ToPlanResponse(p *entity.Plan) dto.PlanResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return dto.PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		PlanType:     string(p.PlanType),
		PriceMonthly: p.PriceMonthly,
		Currency:     p.Currency,
		MaxUsers:     p.MaxUsers,
		MaxProducts:  p.MaxProducts,
		MaxOrders:    p.MaxOrders,
		MaxBranches:  p.MaxBranches,
		Features:     features,
	}
}

// ToSubscriptionResponse convierte una suscripción al DTO.
func ToSubscriptionResponse(s *entity.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:         s.ID,
		BusinessID: s.BusinessID,
		PlanID:     s.PlanID,
		Status:     string(s.Status),
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
		AutoRenew:  s.AutoRenew,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// ToUsageResponse convierte el reporte de uso al DTO.
func ToUsageResponse(r *UsageReport) dto.UsageResponse {
	out := dto.UsageResponse{
		Subscription: ToSubscriptionResponse(r.Subscription),
		Plan:         ToPlanResponse(r.Plan),
	}
	for _, l := range r.Lines {
		out.Usage = append(out.Usage, dto.UsageLineResponse{
			Resource:  string(l.Resource),
			Current:   l.Current,
			Ceiling:   l.Ceiling,
			Unlimited: l.Unlimited,
			Remaining: l.Remaining,
		})
	}
	return out
}
