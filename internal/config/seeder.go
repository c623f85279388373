package config

import (
	"log"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedCatalog seeds a starter book catalog for development/testing.
// In production the catalog is managed by the surrounding application.
func (s *Seeder) seedCatalog() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil // Catalog already populated
	}

	books := []models.Book{
		{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", ISBN: "9780134190440", Category: "Programming", TotalCopies: 5, AvailableCopies: 5},
		{Title: "Clean Architecture", Author: "Robert C. Martin", ISBN: "9780134494166", Category: "Software Engineering", TotalCopies: 3, AvailableCopies: 3},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", Category: "Databases", TotalCopies: 4, AvailableCopies: 4},
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", ISBN: "9780135957059", Category: "Software Engineering", TotalCopies: 2, AvailableCopies: 2},
		{Title: "Introduction to Algorithms", Author: "Thomas H. Cormen", ISBN: "9780262046305", Category: "Computer Science", TotalCopies: 1, AvailableCopies: 1},
	}

	if err := s.db.Create(&books).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d catalog books", len(books))
	return nil
}
