package catalog

import "github.com/SeveN7Igor7/studioivosantos/internal/domain"

// DefaultCatalogue is written to an empty store on first use.
func DefaultCatalogue() []domain.Service {
	sizes := func() *domain.SizePrices {
		return &domain.SizePrices{Small: 120, Medium: 140, Large: 160}
	}
	return []domain.Service{
		{ID: "haircut", Name: "Corte de Cabelo", Description: "Corte masculino com acabamento", DurationMinutes: 30, Price: domain.IntPtr(40)},
		{ID: "beard", Name: "Barba", Description: "Barba com toalha quente", DurationMinutes: 30, Price: domain.IntPtr(40)},
		{ID: "eyebrows", Name: "Sobrancelha", Description: "Design de sobrancelha", Price: domain.IntPtr(15)},
		{ID: "carbonoplastia", Name: "Carbonoplastia", Description: "Alinhamento capilar", DurationMinutes: 60, Sizes: sizes()},
		{ID: "pigmentation", Name: "Pigmentação", Description: "Pigmentação de barba ou cabelo", DurationMinutes: 30, Price: domain.IntPtr(50)},
		{ID: "facial-cleaning", Name: "Limpeza Facial", Description: "Limpeza de pele", DurationMinutes: 30, Price: domain.IntPtr(50)},
		{ID: "taninoplastia", Name: "Taninoplastia", Description: "Alisamento com tanino", DurationMinutes: 60, Sizes: sizes()},
		{ID: "visagismo", Name: "Visagismo", Description: "Consultoria de estilo"},
	}
}
