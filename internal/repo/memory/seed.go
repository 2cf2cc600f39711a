package memory

import (
	"github.com/shopspring/decimal"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

// seedCatalog mirrors the rows inserted by the catalog migration.
func seedCatalog(st *state) {
	services := []repo.Service{
		{ID: 1, Name: "Pet Grooming", Description: "Bath, haircut, nail trim and ear cleaning"},
		{ID: 2, Name: "Vaccination", Description: "Core and non-core vaccines"},
		{ID: 3, Name: "Health Checkups", Description: "General physical examination"},
		{ID: 4, Name: "Dental Care", Description: "Cleaning, scaling and extraction"},
		{ID: 5, Name: "Deworming", Description: "Internal parasite treatment"},
		{ID: 6, Name: "Consultation", Description: "Consultation with a veterinarian"},
	}
	for _, s := range services {
		st.services[s.ID] = s
	}

	labTests := []repo.LabTest{
		{ID: 1, Name: "Complete Blood Count", Price: decimal.RequireFromString("650.00")},
		{ID: 2, Name: "Blood Chemistry", Price: decimal.RequireFromString("1200.00")},
		{ID: 3, Name: "Urinalysis", Price: decimal.RequireFromString("350.00")},
		{ID: 4, Name: "Fecalysis", Price: decimal.RequireFromString("250.00")},
		{ID: 5, Name: "Distemper Test Kit", Price: decimal.RequireFromString("900.00")},
		{ID: 6, Name: "Parvo Test Kit", Price: decimal.RequireFromString("900.00")},
		{ID: 7, Name: "Skin Scraping", Price: decimal.RequireFromString("300.00")},
	}
	for _, t := range labTests {
		st.labTests[t.ID] = t
	}

	categories := []repo.Category{
		{ID: 1, Name: "Vaccines"},
		{ID: 2, Name: "Medicines"},
		{ID: 3, Name: "Supplies"},
	}
	for _, c := range categories {
		st.categories[c.ID] = c
	}

	products := []repo.Product{
		{ID: 1, CategoryID: 1, Name: "Anti-Rabies Vaccine", Kind: repo.KindVaccine, Price: decimal.RequireFromString("350.00"), Stock: 100},
		{ID: 2, CategoryID: 1, Name: "5-in-1 DHPPiL Vaccine", Kind: repo.KindVaccine, Price: decimal.RequireFromString("600.00"), Stock: 100},
		{ID: 3, CategoryID: 1, Name: "4-in-1 FVRCP Vaccine", Kind: repo.KindVaccine, Price: decimal.RequireFromString("650.00"), Stock: 100},
		{ID: 4, CategoryID: 2, Name: "Amoxicillin 250mg", Kind: repo.KindMedicine, Price: decimal.RequireFromString("25.00"), Stock: 500},
		{ID: 5, CategoryID: 2, Name: "Pyrantel Dewormer", Kind: repo.KindMedicine, Price: decimal.RequireFromString("120.00"), Stock: 200},
		{ID: 6, CategoryID: 3, Name: "Elizabethan Collar", Kind: repo.KindSupply, Price: decimal.RequireFromString("180.00"), Stock: 50},
	}
	for _, p := range products {
		p.CategoryName = st.categories[p.CategoryID].Name
		st.products[p.ID] = p
	}
}
